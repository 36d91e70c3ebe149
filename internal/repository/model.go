package repository

import "time"

// SoundEffect is a single catalog entry. EndMillis is nil when the clip
// plays to the end of the file.
type SoundEffect struct {
	ID          int
	Name        string
	Icon        string
	SourceURL   string
	FilePath    string
	StartMillis int
	EndMillis   *int
	Tags        string
	AuthorID    string
	GuildID     string
	CreatedAt   time.Time
}

// DurationMillis returns the trimmed clip length, or readUntilEOF = true
// when no end offset is set.
func (s *SoundEffect) DurationMillis() (millis int, readUntilEOF bool) {
	if s.EndMillis == nil {
		return 0, true
	}
	return *s.EndMillis - s.StartMillis, false
}

type HistoryRecord struct {
	PlayedAt      time.Time
	UserID        string
	GuildID       string
	SoundEffectID int
}

// RecentUse is one row of a user's deduplicated recency query: the most
// recent time the user played that particular effect.
type RecentUse struct {
	SoundEffectID int
	LastPlayedAt  time.Time
}
