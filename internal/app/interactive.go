package app

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/keponer/cardmarket-card-finder/utils"
)

const (
	cookiePrompt = "Enter Cookie header value(s). Paste only cookie pairs (e.g., name=value; name2=value2).\n" +
		"If you pasted a Set-Cookie string with attributes, they will be ignored.\n> "
	urlPrompt = "Enter one or more URLs to GET (comma-separated), or press Enter to quit: "

	noCommonSellers = "no common seller profiles found across provided URLs"
)

// RunInteractive reads a cookie once, then compares comma-separated URL
// lists until an empty line or end of input. A failing URL ends the session
// with its error.
func (a *App) RunInteractive(ctx context.Context, headers map[string]string) error {
	in := bufio.NewScanner(a.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1<<20)

	fmt.Fprintln(a.Stdout, "Step 1: Provide request details")
	fmt.Fprint(a.Stdout, cookiePrompt)
	rawCookie, _ := readLine(in)
	cookie := utils.NormalizeCookie(rawCookie)
	if cookie == "" {
		fmt.Fprintln(a.Stderr, "No cookie provided, continuing unauthenticated.")
	}

	for {
		fmt.Fprint(a.Stdout, urlPrompt)
		line, ok := readLine(in)
		if !ok || strings.TrimSpace(line) == "" {
			return in.Err()
		}

		urls := utils.SplitURLs(line)
		if len(urls) == 0 {
			fmt.Fprintln(a.Stderr, "Error: no valid URLs provided.")
			continue
		}

		prices, err := a.CompareURLs(ctx, urls, cookie, headers)
		if err != nil {
			return err
		}
		if prices.Len() == 0 {
			fmt.Fprintln(a.Stderr, "Error: "+noCommonSellers)
			continue
		}
		a.renderPrices(prices)
	}
}

func readLine(in *bufio.Scanner) (string, bool) {
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}
