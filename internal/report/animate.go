package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/spigell/resume-matcher/internal/utils"
)

// DefaultStep is the delay between two increments of the score counter.
const DefaultStep = 20 * time.Millisecond

// Animate counts the score up from zero on a progress bar, one point per
// step, switching the label as the count crosses tier thresholds.
func Animate(ctx context.Context, w io.Writer, score int, step time.Duration) error {
	score = clampScore(score)

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(TierFor(0).Status()),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionShowBytes(false),
		progressbar.OptionThrottle(0),
	)

	tier := TierFor(0)
	for current := 0; current <= score; current++ {
		if next := TierFor(current); next != tier {
			tier = next
			bar.Describe(tier.Status())
		}

		if err := bar.Set(current); err != nil {
			return fmt.Errorf("updating score bar: %w", err)
		}

		if current == score {
			break
		}

		if err := utils.WaitFor(ctx, step); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n")
	return err
}
