package mainfuncs

import (
	"fmt"
	"io"

	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/mc"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// Progress receives the number of paths added after every batch.
type Progress interface {
	Add(n int) error
}

type Convergence struct {
	Price     float64 `json:"price"`
	Low       float64 `json:"ci_low"`
	High      float64 `json:"ci_high"`
	Paths     int64   `json:"paths"`
	Converged bool    `json:"converged"`
}

// Converge generates paths in batches until the confidence interval is no
// wider than target or budget paths have been simulated in total.
func Converge(p *mc.Pricer, batch, budget int, target float64, progress Progress) (*Convergence, error) {
	if batch <= 0 || budget <= 0 || target < 0 {
		return nil, fmt.Errorf("converge: batch %d, budget %d and target %v out of range: %w", batch, budget, target, errs.ErrInvalidArgument)
	}

	out := &Convergence{}
	for p.NbPaths() < int64(budget) {
		n := batch
		if left := int64(budget) - p.NbPaths(); left < int64(n) {
			n = int(left)
		}
		if err := p.Generate(n); err != nil {
			return nil, err
		}
		if progress != nil {
			if err := progress.Add(n); err != nil {
				return nil, err
			}
		}
		if p.NbPaths() < 2 {
			continue
		}
		lo, hi, err := p.ConfidenceInterval()
		if err != nil {
			return nil, err
		}
		out.Low, out.High = lo, hi
		if hi-lo <= target {
			out.Converged = true
			break
		}
	}

	price, err := p.Price()
	if err != nil {
		return nil, err
	}
	out.Price = price
	out.Paths = p.NbPaths()

	log.WithFields(log.Fields{
		"paths":     out.Paths,
		"width":     out.High - out.Low,
		"converged": out.Converged,
	}).Debug("mainfuncs: convergence loop done")
	return out, nil
}

// FinishProgress completes bar and logs a warning if that fails.
func FinishProgress(bar interface{ Finish() error }) {
	if err := bar.Finish(); err != nil {
		log.WithError(err).Warn("error finishing progress bar")
	}
}

// ProgressBar reports simulated paths out of length on w.
func ProgressBar(length int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		length,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("paths"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
