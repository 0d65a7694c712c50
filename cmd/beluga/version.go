package main

import (
	"fmt"
	"os"
	"path"
)

const (
	Major   = 0
	Minor   = 1
	PackVer = 0

	Usage       = "event store cluster node discovery"
	UsageText   = "beluga [-c|--config value] [--loglvl value]"
	ConfigUsage = "Path to TOML config file"
	LoglvlUsage = "debug,info,warn"

	FlagConfigKey = "config"
	FlagLoglvlKey = "loglvl"
)

var (
	DisplayVersion = fmt.Sprintf("%d.%d.%d", Major, Minor, PackVer)
	DisplayName    = path.Base(os.Args[0])
)
