package audio

import (
	"context"

	"github.com/foxseedlab/sfxboard/internal/discord"
)

// Playback is one in-flight clip stream on a voice connection.
type Playback interface {
	// Stop tears the stream down. Safe to call more than once.
	Stop()
	// Done closes when the stream has finished or was stopped.
	Done() <-chan struct{}
}

// Streamer hands a trimmed audio file to a voice connection. Stream returns
// once playback has been handed off; it does not wait for the clip to end.
// endMillis nil means play until end of file.
type Streamer interface {
	Stream(ctx context.Context, conn discord.VoiceConnection, filePath string, startMillis int, endMillis *int) (Playback, error)
}
