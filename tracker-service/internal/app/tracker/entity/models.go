package entity

import (
	"time"

	"iat/pkg/rubric"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branch направление стажера
type Branch string

const (
	BranchMBA         Branch = "MBA"
	BranchElectrical  Branch = "Electrical"
	BranchElectronics Branch = "Electronics"
	BranchCSE         Branch = "CSE"
	BranchMechanical  Branch = "Mechanical"
)

// Principal аутентифицированный пользователь запроса (кладется в gin.Context middleware)
type Principal struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Branch string `json:"branch"`
}

type User struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username      string               `json:"username" bson:"username"`
	Email         string               `json:"email" bson:"email"`
	PasswordHash  string               `json:"-" bson:"password_hash"`
	Branch        Branch               `json:"branch" bson:"branch"`
	JoinedGroups  []primitive.ObjectID `json:"joinedGroups" bson:"joined_groups"`
	RatingHistory []RatingHistoryEntry `json:"ratingHistory" bson:"rating_history"`
	Version       int64                `json:"-" bson:"version"`
	CreatedAt     time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updated_at"`
}

// RatingHistoryEntry запись в профиле пользователя об оценке группы.
// GroupName - снимок имени на момент оценки.
type RatingHistoryEntry struct {
	GroupID   primitive.ObjectID `json:"groupId" bson:"group_id"`
	GroupName string             `json:"groupName" bson:"group_name"`
	RatedAt   time.Time          `json:"ratedAt" bson:"rated_at"`
}

// HasJoined проверяет, указана ли группа в joinedGroups пользователя
func (u *User) HasJoined(groupID primitive.ObjectID) bool {
	for _, id := range u.JoinedGroups {
		if id == groupID {
			return true
		}
	}
	return false
}

// RemoveJoinedGroup удаляет группу из joinedGroups
func (u *User) RemoveJoinedGroup(groupID primitive.ObjectID) {
	kept := u.JoinedGroups[:0]
	for _, id := range u.JoinedGroups {
		if id != groupID {
			kept = append(kept, id)
		}
	}
	u.JoinedGroups = kept
}

// RemoveRatingHistory удаляет все записи истории по группе
func (u *User) RemoveRatingHistory(groupID primitive.ObjectID) {
	kept := u.RatingHistory[:0]
	for _, h := range u.RatingHistory {
		if h.GroupID != groupID {
			kept = append(kept, h)
		}
	}
	u.RatingHistory = kept
}

// Member снимок данных участника на момент вступления (не синхронизируется с User)
type Member struct {
	UserID   primitive.ObjectID `json:"userId" bson:"user_id"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email" bson:"email"`
	Branch   Branch             `json:"branch" bson:"branch"`
	JoinDate time.Time          `json:"joinDate" bson:"join_date"`
}

// Rating оценка группы одним пользователем
type Rating struct {
	RaterID       primitive.ObjectID `json:"raterId" bson:"rater_id"`
	RaterName     string             `json:"raterName" bson:"rater_name"`
	rubric.Scores `bson:",inline"`
	Comments      string    `json:"comments" bson:"comments"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

type Group struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Members          []Member           `json:"members" bson:"members"`
	Ratings          []Rating           `json:"ratings" bson:"ratings"`
	rubric.Aggregate `bson:",inline"`
	Version          int64     `json:"-" bson:"version"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasMember проверяет членство пользователя в группе
func (g *Group) HasMember(userID primitive.ObjectID) bool {
	return g.memberIndex(userID) >= 0
}

// HasRated проверяет, оценивал ли пользователь группу
func (g *Group) HasRated(userID primitive.ObjectID) bool {
	return g.ratingIndex(userID) >= 0
}

// RemoveMember удаляет участника, возвращает false если его не было
func (g *Group) RemoveMember(userID primitive.ObjectID) bool {
	i := g.memberIndex(userID)
	if i < 0 {
		return false
	}
	g.Members = append(g.Members[:i], g.Members[i+1:]...)
	return true
}

// RemoveRating удаляет оценку пользователя, возвращает false если ее не было
func (g *Group) RemoveRating(userID primitive.ObjectID) bool {
	i := g.ratingIndex(userID)
	if i < 0 {
		return false
	}
	g.Ratings = append(g.Ratings[:i], g.Ratings[i+1:]...)
	return true
}

// RecomputeAggregate пересчитывает производные поля из текущего списка оценок.
// Вызывается явно на каждом пути, изменяющем Ratings, перед сохранением.
func (g *Group) RecomputeAggregate() {
	scores := make([]rubric.Scores, 0, len(g.Ratings))
	for _, r := range g.Ratings {
		scores = append(scores, r.Scores)
	}
	g.Aggregate = rubric.Recompute(scores)
}

func (g *Group) memberIndex(userID primitive.ObjectID) int {
	for i, m := range g.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

func (g *Group) ratingIndex(userID primitive.ObjectID) int {
	for i, r := range g.Ratings {
		if r.RaterID == userID {
			return i
		}
	}
	return -1
}

// GroupEvent событие, отправляемое в Kafka после изменения членства или оценок
type GroupEvent struct {
	EventType string    `json:"event_type"` // MEMBER_JOINED, MEMBER_LEFT, GROUP_RATED, GROUP_UNRATED, GROUP_CREATED, GROUP_DELETED
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventMemberJoined = "MEMBER_JOINED"
	EventMemberLeft   = "MEMBER_LEFT"
	EventGroupRated   = "GROUP_RATED"
	EventGroupUnrated = "GROUP_UNRATED"
	EventGroupCreated = "GROUP_CREATED"
	EventGroupDeleted = "GROUP_DELETED"
)
