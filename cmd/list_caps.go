package cmd

import (
	"bytes"

	"github.com/VincentPHAM98/SI3D/gpu/opengl"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the capabilities of the OpenGL device.
func ListCaps(ctx *cli.Context) error {
	setupLogging(ctx)

	dev, err := opengl.Open(opengl.Options{Hidden: true})
	if err != nil {
		return err
	}
	defer dev.Close()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Capability", "Supported"})
	for _, row := range dev.CapabilityReport() {
		table.Append(row[:])
	}

	table.Render()
	logger.Noticef("device %s\n%s", dev.Info(), buf.String())
	return nil
}
