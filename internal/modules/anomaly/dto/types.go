package dto

type StatsOutput struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

type AnomalyOutput struct {
	Date       string
	MDIScore   float64
	ZScore     float64
	Severity   string
	Message    string
	DetectedAt string
}

type DetectOutput struct {
	Skipped       bool
	SkipReason    string
	Threshold     float64
	Stats         StatsOutput
	ZScoresStored int
	Anomalies     []AnomalyOutput
}
