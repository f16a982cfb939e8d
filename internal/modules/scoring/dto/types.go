package dto

type DailyOutput struct {
	Date                     string
	Weekday                  string
	FeedTimeMinutes          float64
	TotalMidnightTimeMinutes float64
	AvgFeedSessionMinutes    float64
	NumFeedMidnightSessions  int
	NumMidnightSessions      int
	MDIScore                 float64
	ZScore                   *float64
}

type StatsOutput struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

type ScoreOutput struct {
	SessionsRead int
	Inserted     int
	Days         []DailyOutput
	Stats        StatsOutput
}
