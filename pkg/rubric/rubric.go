// Package rubric содержит шкалу оценки групп и расчет агрегатов.
// Используется tracker-service при изменении рейтингов и reconciler-service при read-repair.
package rubric

import "math"

// Границы оценки по одному измерению (включительно)
const (
	MinScore = 0
	MaxScore = 40
)

// Названия измерений в том виде, в котором они приходят в API
const (
	DimCommunication     = "communication"
	DimPresentation      = "presentation"
	DimContent           = "content"
	DimHelpfulForCompany = "helpfulForCompany"
	DimHelpfulForInterns = "helpfulForInterns"
	DimParticipation     = "participation"
)

// Scores оценки по шести измерениям рубрики
type Scores struct {
	Communication     float64 `json:"communication" bson:"communication"`
	Presentation      float64 `json:"presentation" bson:"presentation"`
	Content           float64 `json:"content" bson:"content"`
	HelpfulForCompany float64 `json:"helpfulForCompany" bson:"helpful_for_company"`
	HelpfulForInterns float64 `json:"helpfulForInterns" bson:"helpful_for_interns"`
	Participation     float64 `json:"participation" bson:"participation"`
}

// Total сумма всех шести измерений одной оценки
func (s Scores) Total() float64 {
	return s.Communication + s.Presentation + s.Content +
		s.HelpfulForCompany + s.HelpfulForInterns + s.Participation
}

// Invalid возвращает названия измерений вне диапазона [MinScore, MaxScore].
// Пустой результат означает, что оценка допустима.
func (s Scores) Invalid() []string {
	dims := []struct {
		name  string
		value float64
	}{
		{DimCommunication, s.Communication},
		{DimPresentation, s.Presentation},
		{DimContent, s.Content},
		{DimHelpfulForCompany, s.HelpfulForCompany},
		{DimHelpfulForInterns, s.HelpfulForInterns},
		{DimParticipation, s.Participation},
	}

	var invalid []string
	for _, d := range dims {
		if math.IsNaN(d.value) || d.value < MinScore || d.value > MaxScore {
			invalid = append(invalid, d.name)
		}
	}
	return invalid
}

// Aggregate производные поля группы, пересчитываемые из списка оценок
type Aggregate struct {
	TotalRating          float64 `json:"totalRating" bson:"total_rating"`
	RatingCount          int     `json:"ratingCount" bson:"rating_count"`
	AvgCommunication     float64 `json:"avgCommunication" bson:"avg_communication"`
	AvgPresentation      float64 `json:"avgPresentation" bson:"avg_presentation"`
	AvgContent           float64 `json:"avgContent" bson:"avg_content"`
	AvgHelpfulForCompany float64 `json:"avgHelpfulForCompany" bson:"avg_helpful_for_company"`
	AvgHelpfulForInterns float64 `json:"avgHelpfulForInterns" bson:"avg_helpful_for_interns"`
	AvgParticipation     float64 `json:"avgParticipation" bson:"avg_participation"`
}

// Recompute считает агрегаты с нуля.
// TotalRating это сумма средних по измерениям, а не среднее от сумм каждой оценки.
// Для пустого списка все поля равны нулю.
func Recompute(scores []Scores) Aggregate {
	if len(scores) == 0 {
		return Aggregate{}
	}

	var sum Scores
	for _, s := range scores {
		sum.Communication += s.Communication
		sum.Presentation += s.Presentation
		sum.Content += s.Content
		sum.HelpfulForCompany += s.HelpfulForCompany
		sum.HelpfulForInterns += s.HelpfulForInterns
		sum.Participation += s.Participation
	}

	n := float64(len(scores))
	agg := Aggregate{
		RatingCount:          len(scores),
		AvgCommunication:     sum.Communication / n,
		AvgPresentation:      sum.Presentation / n,
		AvgContent:           sum.Content / n,
		AvgHelpfulForCompany: sum.HelpfulForCompany / n,
		AvgHelpfulForInterns: sum.HelpfulForInterns / n,
		AvgParticipation:     sum.Participation / n,
	}
	agg.TotalRating = agg.AvgCommunication + agg.AvgPresentation + agg.AvgContent +
		agg.AvgHelpfulForCompany + agg.AvgHelpfulForInterns + agg.AvgParticipation

	return agg
}
