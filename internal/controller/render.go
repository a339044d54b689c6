package controller

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/zanger_agent/internal/backend"
)

// renderAnalysis composes the analysis payload into one system turn.
func renderAnalysis(a *backend.AnalysisResult) string {
	var sb strings.Builder

	sb.WriteString(a.AnalysisSummary)

	if a.CurrentData != (backend.CurrentData{}) {
		sb.WriteString("\n")
		writeLine(&sb, "Price", a.CurrentData.Price)
		writeLine(&sb, "Volume vs 20-day avg", a.CurrentData.VolumeVsAvg)
		writeLine(&sb, "Earnings growth", a.CurrentData.EarningsGrowth)
		writeLine(&sb, "Sector", a.CurrentData.SectorPerformance)
	}

	if a.ZangerAnalysis != (backend.ZangerAnalysis{}) {
		sb.WriteString("\nZanger screen:\n")
		writeLine(&sb, "Pattern", a.ZangerAnalysis.PatternType)
		writeLine(&sb, "Volume ratio", a.ZangerAnalysis.VolumeRatio)
		writeLine(&sb, "Breakout level", a.ZangerAnalysis.BreakoutLevel)
		writeLine(&sb, "Criteria", a.ZangerAnalysis.MeetsZangerCriteria)
	}

	if a.Recommendation.Action != "" {
		sb.WriteString(fmt.Sprintf("\nRecommendation: %s", a.Recommendation.Action))
		if a.Recommendation.Confidence != "" {
			sb.WriteString(fmt.Sprintf(" (%s confidence)", a.Recommendation.Confidence))
		}
		sb.WriteString("\n")
		if a.Recommendation.Reasoning != "" {
			sb.WriteString(a.Recommendation.Reasoning + "\n")
		}
	}

	td := a.TradingDetails
	if td != (backend.TradingDetails{}) {
		sb.WriteString("\nTrading details:\n")
		writeLine(&sb, "Entry", td.EntryPrice)
		writeLine(&sb, "Stop loss", td.StopLoss)
		writeLine(&sb, "Target", td.TargetPrice)
		writeLine(&sb, "Position size", td.PositionSize)
		writeLine(&sb, "Time horizon", td.TimeHorizon)
	}

	if a.RiskAssessment.RiskLevel != "" || len(a.RiskAssessment.KeyRisks) > 0 {
		sb.WriteString(fmt.Sprintf("\nRisk: %s", a.RiskAssessment.RiskLevel))
		if a.RiskAssessment.RiskRewardRatio != "" {
			sb.WriteString(fmt.Sprintf(" (R/R %s)", a.RiskAssessment.RiskRewardRatio))
		}
		if len(a.RiskAssessment.KeyRisks) > 0 {
			sb.WriteString("; key risks: " + strings.Join(a.RiskAssessment.KeyRisks, ", "))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeLine(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("- %s: %s\n", label, value))
}
