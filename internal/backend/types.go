package backend

import "fmt"

const (
	CodeValidation  = "VALIDATION"
	CodeTransport   = "TRANSPORT"
	CodeApplication = "APPLICATION"
	CodePartialData = "PARTIAL_DATA"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

// NewError builds a CodedError with the given stable code.
func NewError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// AnalysisResult is the analysis payload returned by POST /api/chat.
// It is consumed once to render a chat turn and seed the watchlist,
// and is never persisted.
type AnalysisResult struct {
	AnalysisSummary string         `json:"analysis_summary"`
	SymbolsAnalyzed []string       `json:"symbols_analyzed"`
	CurrentData     CurrentData    `json:"current_data"`
	ZangerAnalysis  ZangerAnalysis `json:"zanger_analysis"`
	Recommendation  Recommendation `json:"recommendation"`
	TradingDetails  TradingDetails `json:"trading_details"`
	RiskAssessment  RiskAssessment `json:"risk_assessment"`
}

// CurrentData holds point-in-time market stats as display strings.
type CurrentData struct {
	Price             string `json:"price"`
	VolumeVsAvg       string `json:"volume_vs_avg"`
	EarningsGrowth    string `json:"earnings_growth"`
	SectorPerformance string `json:"sector_performance"`
}

// ZangerAnalysis holds the pattern screen against Zanger criteria.
type ZangerAnalysis struct {
	PatternType         string `json:"pattern_type"`
	VolumeRatio         string `json:"volume_ratio"`
	BreakoutLevel       string `json:"breakout_level"`
	MeetsZangerCriteria string `json:"meets_zanger_criteria"`
}

type Recommendation struct {
	Action     string `json:"action"`
	Confidence string `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

type TradingDetails struct {
	Ticker       string `json:"ticker,omitempty"`
	EntryPrice   string `json:"entry_price"`
	StopLoss     string `json:"stop_loss"`
	TargetPrice  string `json:"target_price"`
	PositionSize string `json:"position_size"`
	TimeHorizon  string `json:"time_horizon"`
}

type RiskAssessment struct {
	RiskLevel       string   `json:"risk_level"`
	RiskRewardRatio string   `json:"risk_reward_ratio"`
	KeyRisks        []string `json:"key_risks"`
}

// StockData is the detail payload returned by POST /api/stock-data.
// Fields absent from the response decode as nil.
type StockData struct {
	CurrentPrice *float64 `json:"current_price"`
	PERatio      *float64 `json:"pe_ratio"`
	MarketCap    *float64 `json:"market_cap"`
	Week52Low    *float64 `json:"52_week_low"`
	Week52High   *float64 `json:"52_week_high"`
	QuarterlyEPS *float64 `json:"quarterly_eps"`
}
