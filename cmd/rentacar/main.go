/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rent-a-car-go/internal/auth"
	"rent-a-car-go/internal/common"
	"rent-a-car-go/internal/config"
	"rent-a-car-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const programName = "rentacar"

var (
	globalFlags = struct {
		debug       bool
		envFile     string
		credentials []string
		secretKeys  []string
	}{}

	// errOperationFailed is returned after a rejected operation has been reported
	errOperationFailed = errors.New("operation failed")
)

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Rental marketplace ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.envFile, "env-file", "", "path to env file (default .env if present)")
	rootCmd.PersistentFlags().
		StringArrayVar(&globalFlags.credentials, "credential", nil, "signed credential (JWT) authorizing the call, repeatable")
	rootCmd.PersistentFlags().
		StringArrayVar(&globalFlags.secretKeys, "key", nil, "hex secret key to sign a credential with, repeatable")

	rootCmd.AddCommand(
		initCommand(),
		commissionCommand(),
		carCommand(),
		rentCommand(),
		returnCommand(),
		payoutCommand(),
		treasuryCommand(),
		tokenCommand(),
		keysCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errOperationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run loads configuration, opens the backends and calls fn with a context
// carrying the caller's credentials
func run(cmd *cobra.Command, fn func(ctx context.Context, svc *common.Services) error) error {
	_, cleanup := common.InitializeLogger(globalFlags.debug)
	defer cleanup()

	cfg, err := config.Load(globalFlags.envFile)
	if err != nil {
		zap.L().Error("Failed to load configuration", zap.Error(err))
		return err
	}

	svc, err := common.InitializeServices(cmd.Context(), cfg)
	if err != nil {
		zap.L().Error("Failed to initialize services", zap.Error(err))
		return err
	}
	defer svc.Close()

	ctx, err := credentialContext(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func credentialContext(ctx context.Context, cfg *models.Config) (context.Context, error) {
	credentials := append([]string(nil), globalFlags.credentials...)
	for _, secret := range globalFlags.secretKeys {
		key, err := auth.ParseSecretKey(secret)
		if err != nil {
			return nil, err
		}
		credential, err := auth.NewIssuer(key, cfg.Contract.Address, cfg.Auth.MaxCredentialAge).Sign()
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}
	return auth.WithCredentials(ctx, credentials...), nil
}

// report prints the result and turns a failure into a non-zero exit
func report(res *models.OperationResult) error {
	common.PrintResult(res)
	if !res.Success {
		return errOperationFailed
	}
	return nil
}
