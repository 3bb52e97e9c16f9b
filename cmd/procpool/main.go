package main

import (
	"github.com/Paintersrp/procpool/internal/cli"
	"github.com/Paintersrp/procpool/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
