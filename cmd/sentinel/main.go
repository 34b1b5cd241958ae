// Command sentinel scrapes daily prices, keeps the JSON store current and
// reports MACD/stochastic trend signals.
//
//	sentinel scrape --months 1
//	sentinel report --out result/trend.xlsx
//	sentinel schedule
package main

import (
	"os"

	"TrendSentinel/cmd/sentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
