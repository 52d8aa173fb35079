// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"

	"github.com/todddb/ragai-console/internal/util"
)

// HandleUnlock prompts for the admin token and unlocks the session. The
// token is read without echo and never written to the state store; only
// the unlocked flag persists.
func HandleUnlock(args Args) error {
	if !util.StdinIsTerminal() {
		return errors.New("unlock needs an interactive terminal for the hidden prompt")
	}

	rt, err := NewRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	token := rt.Config.API.AdminToken
	if token == "" {
		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		entered, err := line.PasswordPrompt("Admin token: ")
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(entered)
	}
	if token == "" {
		return errors.New("empty token")
	}

	err = rt.Client.PostJSON(context.Background(), "/api/admin/unlock",
		map[string]string{"token": token}, nil)
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	rt.State.SetAdminUnlocked(true)
	fmt.Println("Admin session unlocked.")
	return nil
}
