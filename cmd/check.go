package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Check probes the YouTube Music proxy health endpoint.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	r.ensureAPI()

	resp, err := r.api.Health(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ YouTube Music proxy is healthy (status %d)\n", resp.StatusCode)
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}
	return nil
}
