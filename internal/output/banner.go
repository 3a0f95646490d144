package output

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// BannerOptions configures the startup banner display.
type BannerOptions struct {
	ShowBanner  bool
	ShowVersion bool
}

func DefaultBannerOptions() BannerOptions {
	return BannerOptions{ShowBanner: true, ShowVersion: true}
}

// PrintBanner displays the codeindex ASCII logo and version.
func PrintBanner(w io.Writer, version string, opts BannerOptions) {
	if w == nil {
		return
	}
	if !opts.ShowBanner {
		if opts.ShowVersion {
			fmt.Fprintf(w, "codeindex v%s\n", version)
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, GetASCIILogo())
	if opts.ShowVersion {
		fmt.Fprintf(w, "codeindex v%s\n", version)
	}
	fmt.Fprintln(w)
}

func GetASCIILogo() string {
	fig := figure.NewFigure("codeindex", "standard", true)
	return fig.String()
}

func GetCompactBanner(version string) string {
	return fmt.Sprintf("codeindex v%s", version)
}

// ShouldShowBanner shows the full banner only on a TTY and when not
// explicitly suppressed.
func ShouldShowBanner(isTTY bool, noBannerFlag bool) bool {
	if noBannerFlag {
		return false
	}
	return isTTY
}
