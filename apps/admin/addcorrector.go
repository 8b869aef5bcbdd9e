package main

import (
	"context"

	"github.com/prologin/gccsite/core"
)

// addCorrector grants review permission on an event to an existing user.
func (cli *commandLine) addCorrector(uname, eventID string) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.GetByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if _, err = cli.edSvc.GetEvent(ctx, eventID); err != nil {
		return err
	}
	if _, err = cli.revSvc.AddCorrector(ctx, usr.ID, eventID); err != nil {
		return err
	}
	logger.Printf("%s now reviews event %s\n", usr.Username, eventID)
	return nil
}
