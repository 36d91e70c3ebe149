package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	audiopkg "github.com/foxseedlab/sfxboard/internal/audio"
	"github.com/foxseedlab/sfxboard/internal/discord"
	"github.com/hraban/opus"
)

const (
	sampleRate    = 48000
	channels      = 2
	frameSamples  = 960
	frameDuration = 20 * time.Millisecond
	// Maximum size of a single opus packet the voice gateway accepts.
	maxOpusBytes = 1275
)

// FFmpegStreamer decodes clips with an ffmpeg subprocess and pushes
// opus-encoded 20ms frames onto the voice connection. ffmpeg handles the
// trim window and loudness normalization so the bot never has to parse
// container formats itself.
type FFmpegStreamer struct {
	baseDir    string
	maxSeconds int
}

func NewFFmpegStreamer(baseDir string, maxSeconds int) audiopkg.Streamer {
	return &FFmpegStreamer{
		baseDir:    baseDir,
		maxSeconds: maxSeconds,
	}
}

func (s *FFmpegStreamer) Stream(ctx context.Context, conn discord.VoiceConnection, filePath string, startMillis int, endMillis *int) (audiopkg.Playback, error) {
	_ = ctx
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	path := filePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}
	cmd := exec.Command("ffmpeg", ffmpegArgs(path, startMillis, endMillis, s.maxSeconds)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	p := &playback{
		cmd:  cmd,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.run(conn, stdout, enc)
	return p, nil
}

// ffmpegArgs builds the decode pipeline: seek to the trim start, play at
// most the trim window (capped at maxSeconds), normalize loudness and emit
// raw 48kHz stereo PCM on stdout.
func ffmpegArgs(path string, startMillis int, endMillis *int, maxSeconds int) []string {
	args := []string{"-loglevel", "error"}
	if startMillis > 0 {
		args = append(args, "-ss", millisArg(startMillis))
	}
	args = append(args, "-i", path)
	limitMillis := maxSeconds * 1000
	if endMillis != nil {
		if window := *endMillis - startMillis; window < limitMillis {
			limitMillis = window
		}
	}
	args = append(args, "-t", millisArg(limitMillis))
	args = append(args,
		"-filter:a", "loudnorm",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"pipe:1",
	)
	return args
}

func millisArg(millis int) string {
	return strconv.FormatFloat(float64(millis)/1000.0, 'f', 3, 64)
}

type playback struct {
	cmd      *exec.Cmd
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func (p *playback) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *playback) Done() <-chan struct{} {
	return p.done
}

func (p *playback) run(conn discord.VoiceConnection, stdout io.ReadCloser, enc *opus.Encoder) {
	defer close(p.done)
	defer func() {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	}()

	if err := conn.Speaking(true); err != nil {
		slog.Warn("failed to set speaking state", "error", err)
	}
	defer func() {
		if err := conn.Speaking(false); err != nil {
			slog.Debug("failed to clear speaking state", "error", err)
		}
	}()

	pcmBytes := make([]byte, frameSamples*channels*2)
	pcm := make([]int16, frameSamples*channels)
	packet := make([]byte, maxOpusBytes)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		n, err := io.ReadFull(stdout, pcmBytes)
		last := false
		switch {
		case err == nil:
		case errors.Is(err, io.ErrUnexpectedEOF):
			// Zero-pad the trailing partial frame so the clip tail is
			// not dropped.
			for i := n; i < len(pcmBytes); i++ {
				pcmBytes[i] = 0
			}
			last = true
		case errors.Is(err, io.EOF):
			return
		default:
			slog.Warn("ffmpeg pcm read failed", "error", err)
			return
		}

		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(pcmBytes[i*2:]))
		}
		n, err = enc.Encode(pcm, packet)
		if err != nil {
			slog.Warn("opus encode failed", "error", err)
			return
		}
		frame := make([]byte, n)
		copy(frame, packet[:n])

		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}
		select {
		case <-p.stop:
			return
		case conn.OpusSend() <- frame:
		}
		if last {
			return
		}
	}
}
