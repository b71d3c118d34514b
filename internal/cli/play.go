package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mgpai22/hiyori/internal/playback"
	"github.com/mgpai22/hiyori/internal/subtitle"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [subtitle_file]",
	Short: "Play subtitles against a wall clock in the terminal",
	Long: `Load a subtitle file and print each cue as it becomes active, driven by
a wall clock. Useful for checking timing and offsets without a player.

Examples:
  hiyori play movie.srt
  hiyori play movie.smi --start 600 --speed 4
  hiyori play movie.srt --offset -1500 --duration 2m`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().
		Float64("start", 0, "Playback position to start from, in seconds")
	playCmd.Flags().
		Float64("speed", 1, "Playback rate (e.g., 0.5, 2)")
	playCmd.Flags().
		Float64("offset", 0, "Offset in milliseconds added to the clock (default from config)")
	playCmd.Flags().
		Duration("duration", 0, "Stop after this much wall time (default: until the last cue ends)")
}

// wallClock maps elapsed wall time to a playback position.
type wallClock struct {
	mu    sync.Mutex
	now   func() time.Time
	base  float64
	since time.Time
	speed float64
}

func newWallClock(start, speed float64, now func() time.Time) *wallClock {
	if now == nil {
		now = time.Now
	}
	return &wallClock{now: now, base: start, since: now(), speed: speed}
}

func (c *wallClock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base + c.now().Sub(c.since).Seconds()*c.speed
}

func runPlay(cmd *cobra.Command, args []string) error {
	path := args[0]

	start, _ := cmd.Flags().GetFloat64("start")
	speed, _ := cmd.Flags().GetFloat64("speed")
	duration, _ := cmd.Flags().GetDuration("duration")
	offset := cfg.OffsetMs
	if cmd.Flags().Changed("offset") {
		offset, _ = cmd.Flags().GetFloat64("offset")
	}

	if speed <= 0 {
		return fmt.Errorf("speed must be positive, got %g", speed)
	}

	track, err := openTrack(cmd, path)
	if err != nil {
		return err
	}
	if len(track.Cues) == 0 {
		return fmt.Errorf("subtitle file contains no cues")
	}

	if duration <= 0 {
		end := track.Cues[len(track.Cues)-1].End - offset/1000 - start
		duration = time.Duration((end/speed)*float64(time.Second)) + time.Second
		if duration < time.Second {
			duration = time.Second
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	session := playback.NewSession("terminal", logger)
	defer session.Close()
	session.Load(track.Cues, offset)

	sub := session.Subscribe()
	clock := newWallClock(start, speed, nil)
	driver := playback.NewDriver(session, clock.Position, cfg.GetPollInterval(), logger)
	driver.Start(ctx)
	defer driver.Stop()

	logger.Infow("Playing subtitles",
		"start", start,
		"speed", speed,
		"offset_ms", offset,
		"duration", duration,
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case change := <-sub.Changed:
			fmt.Println(formatChange(clock.Position(), change))
		}
	}
}

func formatChange(pos float64, change playback.Change) string {
	stamp := time.Duration(pos * float64(time.Second)).Truncate(time.Millisecond)
	if change.Cleared() {
		return fmt.Sprintf("[%s] --", stamp)
	}
	text := strings.ReplaceAll(subtitle.Plain(change.Text), "\n", " / ")
	return fmt.Sprintf("[%s] #%d %s", stamp, change.Index, text)
}
