package main

import (
	"context"
	"fmt"

	"rent-a-car-go/internal/common"
	"rent-a-car-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <admin> <token>",
		Short: "Initialize the ledger with its admin and payment token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc *common.Services) error {
				return report(svc.API.Initialize(ctx, models.Address(args[0]), models.Address(args[1])))
			})
		},
	}
}

func commissionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Admin commission percentage",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <percent>",
			Short: "Set the admin commission (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pct, err := parseAmount("commission", args[0])
				if err != nil {
					return err
				}
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					return report(svc.API.SetAdminCommission(ctx, pct))
				})
			},
		},
		&cobra.Command{
			Use:   "get",
			Short: "Show the admin commission",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					pct, err := svc.Ledger.GetAdminCommission(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("%s%%\n", pct.String())
					return nil
				})
			},
		},
	)
	return cmd
}

func carCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "car",
		Short: "Car listings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <owner> <price-per-day>",
			Short: "List a car for an owner (admin)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				price, err := parseAmount("price", args[1])
				if err != nil {
					return err
				}
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					return report(svc.API.AddCar(ctx, models.Address(args[0]), price))
				})
			},
		},
		&cobra.Command{
			Use:   "status <owner>",
			Short: "Show whether a car is available or rented",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					status, err := svc.API.GetCarStatus(ctx, models.Address(args[0]))
					if err != nil {
						return err
					}
					fmt.Println(status)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <owner>",
			Short: "Show a car record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					car, err := svc.API.GetCar(ctx, models.Address(args[0]))
					if err != nil {
						return err
					}
					common.PrintCars([]models.CarView{*car})
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <owner>",
			Short: "Delete a car listing (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					return report(svc.API.RemoveCar(ctx, models.Address(args[0])))
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every car",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					cars, err := svc.API.ListCars(ctx)
					if err != nil {
						return err
					}
					common.PrintCars(cars)
					return nil
				})
			},
		},
		importCommand(),
	)
	return cmd
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <fleet.yaml>",
		Short: "List every car of a fleet file (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fleet, err := common.LoadFleet(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc *common.Services) error {
				failed := 0
				for _, entry := range fleet {
					res := svc.API.AddCar(ctx, entry.Owner, entry.PricePerDay)
					if !res.Success {
						failed++
						zap.L().Warn("Car not imported",
							zap.String("owner", entry.Owner.Short()),
							zap.String("error", res.Error))
					}
				}
				fmt.Printf("Imported %d of %d cars\n", len(fleet)-failed, len(fleet))
				if failed > 0 {
					return errOperationFailed
				}
				return nil
			})
		},
	}
}

func rentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rent <renter> <owner> <days>",
		Short: "Rent an owner's car, paying up front (renter)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args[2])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc *common.Services) error {
				return report(svc.API.Rental(ctx, models.Address(args[0]), models.Address(args[1]), days))
			})
		},
	}
}

func returnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "return <renter> <owner>",
		Short: "Return a rented car (renter)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc *common.Services) error {
				return report(svc.API.ReturnCar(ctx, models.Address(args[0]), models.Address(args[1])))
			})
		},
	}
}

func payoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Withdraw funds from the contract",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "owner <owner> <amount>",
			Short: "Pay out an owner's earnings (owner)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount("amount", args[1])
				if err != nil {
					return err
				}
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					return report(svc.API.PayoutOwner(ctx, models.Address(args[0]), amount))
				})
			},
		},
		&cobra.Command{
			Use:   "admin <amount>",
			Short: "Pay out accrued commission (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount("amount", args[0])
				if err != nil {
					return err
				}
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					return report(svc.API.PayoutAdmin(ctx, amount))
				})
			},
		},
	)
	return cmd
}

func treasuryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treasury",
		Short: "Contract and admin balances",
	}

	var limit, offset int
	history := &cobra.Command{
		Use:   "history <contract|admin>",
		Short: "List treasury movements, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc *common.Services) error {
				records, err := svc.API.GetTreasuryHistory(ctx, account, limit, offset)
				if err != nil {
					return err
				}
				common.PrintTreasuryHistory(account, records)
				return nil
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	history.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance",
			Short: "Show both treasury counters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					view, err := svc.API.GetTreasury(ctx)
					if err != nil {
						return err
					}
					common.PrintTreasury(view)
					return nil
				})
			},
		},
		history,
		&cobra.Command{
			Use:   "reconcile",
			Short: "Check each counter against its journal",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context, svc *common.Services) error {
					var failed bool
					for _, account := range []models.TreasuryAccount{models.TreasuryContract, models.TreasuryAdmin} {
						if err := svc.API.ReconcileTreasury(ctx, account); err != nil {
							fmt.Printf("✗ %s: %v\n", account, err)
							failed = true
							continue
						}
						fmt.Printf("✓ %s balanced\n", account)
					}
					if failed {
						return errOperationFailed
					}
					return nil
				})
			},
		},
	)
	return cmd
}
