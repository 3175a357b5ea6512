// Package decryptor unlocks encrypted cashbook workbooks. The decrypted
// workbook exists only in memory for the duration of sheet parsing and is
// never written to disk.
package decryptor

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"vivaa/goldbook/internal/logging"
	"vivaa/goldbook/internal/pipelineerror"
)

// Unlock decrypts workbook bytes with the given passphrase and returns an
// in-memory workbook handle. Callers own the handle and must Close it once
// sheet parsing is done; that releases the cleartext.
func Unlock(r io.Reader, passphrase, sourceName string, logger logging.Logger) (*excelize.File, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	f, err := excelize.OpenReader(r, excelize.Options{Password: passphrase})
	if err != nil {
		logger.WithError(err).Error("Failed to open workbook",
			logging.F("source", sourceName))
		return nil, &pipelineerror.DecryptionFailedError{Source: sourceName, Err: err}
	}

	logger.Debug("Workbook unlocked", logging.F("source", sourceName))
	return f, nil
}

// UnlockFile opens a workbook file and decrypts it. A missing or unreadable
// file is a SourceUnreadableError; a decryption failure keeps its own type
// so the pipeline can report the two cases distinctly.
func UnlockFile(path, passphrase string, logger logging.Logger) (*excelize.File, error) {
	file, err := os.Open(path) // #nosec G304 -- paths come from operator config
	if err != nil {
		return nil, &pipelineerror.SourceUnreadableError{Source: path, Err: err}
	}
	defer func() {
		if err := file.Close(); err != nil && logger != nil {
			logger.Warn("Failed to close workbook file", logging.F("error", err))
		}
	}()

	f, err := Unlock(file, passphrase, path, logger)
	if err != nil {
		return nil, fmt.Errorf("unlocking %s: %w", path, err)
	}
	return f, nil
}
