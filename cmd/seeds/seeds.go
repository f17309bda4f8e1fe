// Package seeds implements the seed management commands: listing the seed
// table and installing the default financial-news seed set.
package seeds

import (
	"github.com/spf13/cobra"
)

// DefaultSeedURLs is the stock financial-news seed set installed by
// `seeds add` when no URLs are given.
var DefaultSeedURLs = []string{
	"https://www.forexlive.com/",
	"https://www.dailyfx.com/",
	"https://www.investing.com/",
	"https://www.forexfactory.com/",
	"https://www.marketwatch.com/",
	"https://newsquawk.com/",
	"https://finance.yahoo.com/",
	"https://www.financemagnates.com/",
	"https://www.barrons.com/",
	"https://seekingalpha.com/",
	"https://www.tradingview.com/news/",
	"https://www.benzinga.com/",
	"https://www.stockmarketwatch.com/",
	"https://www.zacks.com/",
	"https://www.morningstar.com/",
	"https://www.kitco.com/",
	"https://oilprice.com/",
	"https://www.coindesk.com/",
	"https://cointelegraph.com/",
	"https://www.zerohedge.com/",
}

// Command returns the seeds command group.
func Command(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "Manage crawl seeds",
	}

	cmd.AddCommand(listCommand(cfgFile))
	cmd.AddCommand(addCommand(cfgFile))

	return cmd
}
