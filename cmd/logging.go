package cmd

import (
	"github.com/VincentPHAM98/SI3D/log"
	"github.com/urfave/cli"
)

var logger = log.New("si3d")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
