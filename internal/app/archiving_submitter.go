package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// ArchivingSubmitter forwards attempts to the Submission Service and keeps a
// local copy of every accepted one so the archive can serve standings.
type ArchivingSubmitter struct {
	primary Submitter
	archive Submitter
	log     logrus.FieldLogger
}

func NewArchivingSubmitter(primary, archive Submitter, log logrus.FieldLogger) *ArchivingSubmitter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ArchivingSubmitter{primary: primary, archive: archive, log: log}
}

// Submit returns the primary receipt. Archive failures are logged only.
func (a *ArchivingSubmitter) Submit(ctx context.Context, challengeID string, submission domain.Submission) (domain.SubmissionReceipt, error) {
	receipt, err := a.primary.Submit(ctx, challengeID, submission)
	if err != nil || !receipt.Accepted {
		return receipt, err
	}
	if _, archiveErr := a.archive.Submit(ctx, challengeID, submission); archiveErr != nil {
		a.log.WithError(archiveErr).WithFields(logrus.Fields{
			"challenge": challengeID,
			"session":   submission.SessionID,
		}).Warn("attempt archive write failed")
	}
	return receipt, nil
}
