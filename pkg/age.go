package pkg

import (
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/aquasecurity/unt-scan/pkg/feed"
	"github.com/aquasecurity/unt-scan/pkg/log"
)

// age prints the age of the cached feed in whole seconds. Any problem is
// reported as 0, so monitoring can treat the output as a plain number.
func (ac AppConfig) age(c *cli.Context, version string) error {
	fmt.Fprintln(ac.Stdout, int64(ac.feedAge(c, version)/time.Second))
	return nil
}

func (ac AppConfig) feedAge(c *cli.Context, version string) time.Duration {
	conf, err := ac.loadConfig(c)
	if err != nil {
		log.Debug("Unable to load the configuration", log.Err(err))
		return 0
	}
	log.SetDebug(conf.Debug)

	age, err := feed.NewClient(conf, version, feed.WithFs(ac.Fs), feed.WithClock(ac.Clock)).Age()
	if err != nil {
		log.Debug("Unable to determine the feed age", log.Err(err))
		return 0
	}
	return max(age, 0)
}
