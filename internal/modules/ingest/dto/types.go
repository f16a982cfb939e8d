package dto

type IngestInput struct {
	Path       string
	ExportPath string
}

type IngestOutput struct {
	Path                 string
	Read                 int
	Kept                 int
	Inserted             int
	TotalSessions        int
	Dropped              map[string]int
	CoercedUserIDs       int
	DefaultCategory      int
	HourFromTimestamp    bool
	FirstDate            string
	LastDate             string
	UniqueUsers          int
	FeedSessions         int
	MidnightSessions     int
	MidnightFeedSessions int
	FeedApps             []string
	ExportPath           string
}
