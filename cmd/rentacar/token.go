package main

import (
	"context"
	"fmt"
	"time"

	"rent-a-car-go/internal/auth"
	"rent-a-car-go/internal/common"
	"rent-a-car-go/internal/config"
	"rent-a-car-go/internal/models"
	"rent-a-car-go/internal/token"

	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Balances of the ledger's payment token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "mint <account> <amount>",
			Short: "Issue tokens to an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount("amount", args[1])
				if err != nil {
					return err
				}
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					tok, err := paymentToken(ctx, svc)
					if err != nil {
						return err
					}
					minter, ok := tok.(token.Minter)
					if !ok {
						return fmt.Errorf("token backend does not support minting")
					}
					if err := minter.Mint(ctx, models.Address(args[0]).Canonical(), amount); err != nil {
						return err
					}
					fmt.Printf("✓ minted %s to %s\n", amount.String(), args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "balance <account>",
			Short: "Show an account's token balance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					tok, err := paymentToken(ctx, svc)
					if err != nil {
						return err
					}
					balancer, ok := tok.(token.Balancer)
					if !ok {
						return fmt.Errorf("token backend does not report balances")
					}
					balance, err := balancer.Balance(ctx, models.Address(args[0]).Canonical())
					if err != nil {
						return err
					}
					fmt.Println(balance.String())
					return nil
				})
			},
		},
	)
	return cmd
}

// paymentToken resolves the token fixed at initialization
func paymentToken(ctx context.Context, svc *common.Services) (token.Transferer, error) {
	cfg, err := svc.Ledger.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Tokens.Token(ctx, cfg.Token)
}

func keysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Identities and credentials",
	}

	var ttl time.Duration
	sign := &cobra.Command{
		Use:   "sign <secret-key>",
		Short: "Sign a credential for the configured ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globalFlags.envFile)
			if err != nil {
				return err
			}
			key, err := auth.ParseSecretKey(args[0])
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.MaxCredentialAge
			}
			credential, err := auth.NewIssuer(key, cfg.Contract.Address, ttl).Sign()
			if err != nil {
				return err
			}
			fmt.Println(credential)
			return nil
		},
	}
	sign.Flags().DurationVar(&ttl, "ttl", 0, "credential lifetime (default AUTH_MAX_CREDENTIAL_AGE)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Create a new identity",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := auth.GenerateKey()
				if err != nil {
					return err
				}
				fmt.Printf("address: %s\n", key.Address())
				fmt.Printf("secret:  %s\n", key.Secret())
				return nil
			},
		},
		sign,
	)
	return cmd
}
