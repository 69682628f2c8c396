package main

import (
	"context"
	"time"
)

// remind sends reminder emails for tasks whose reminder time has passed.
// Meant to be run periodically (cron).
func (cli *commandLine) remind() error {
	sent, err := cli.schedSvc.ReminderScan(context.Background(), time.Now())
	if err != nil {
		return err
	}
	logger.Printf("%d reminder(s) sent\n", sent)
	return nil
}
