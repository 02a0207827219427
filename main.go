package main

import (
	"github.com/lehigh-university-libraries/bepress-migrate/cmd"

	// Register format plugins
	_ "github.com/lehigh-university-libraries/bepress-migrate/format/bepresscsv"
	_ "github.com/lehigh-university-libraries/bepress-migrate/format/bepressxml"
)

func main() {
	cmd.Execute()
}
