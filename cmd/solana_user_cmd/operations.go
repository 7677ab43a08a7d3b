package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/TEENet-io/bridge-go-solana/common"
	"github.com/TEENet-io/bridge-go-solana/solanaman"
)

var errUsage = errors.New("wrong number of arguments, run without arguments for usage")

func run(ctx context.Context, sm *solanaman.Solanaman, command string, args []string) error {
	switch command {
	case "mint":
		if len(args) != 3 {
			return errUsage
		}
		return doMint(ctx, sm, args[0], args[1], args[2])
	case "burn":
		if len(args) != 3 {
			return errUsage
		}
		return doBurn(ctx, sm, args[0], args[1], args[2])
	case "verify":
		if len(args) != 1 {
			return errUsage
		}
		return doVerify(ctx, sm, args[0])
	case "query-height":
		height, err := sm.QueryLatestBlockHeight(ctx)
		if err != nil {
			return err
		}
		logSuccess(fmt.Sprintf("Latest btc block height: %d", height))
		return nil
	case "query-confirmations":
		n, err := sm.QueryMinConfirmations(ctx)
		if err != nil {
			return err
		}
		logSuccess(fmt.Sprintf("Min confirmations: %d", n))
		return nil
	case "tx-status":
		if len(args) != 1 {
			return errUsage
		}
		txID, err := common.TxIdFromDisplayHex(args[0])
		if err != nil {
			return err
		}
		ok, err := sm.GetTxVerificationStatus(ctx, txID)
		if err != nil {
			return err
		}
		logSuccess(fmt.Sprintf("Verified: %v", ok))
		return nil
	case "parse":
		if len(args) != 1 {
			return errUsage
		}
		return doParse(ctx, sm, args[0])
	case "wait":
		if len(args) != 1 {
			return errUsage
		}
		tx, err := sm.WaitForTransaction(ctx, args[0])
		if err != nil {
			return err
		}
		logSuccess(fmt.Sprintf("Transaction landed in slot %d (err=%v)", tx.Slot, tx.Err))
		return nil
	case "validate":
		if len(args) != 1 {
			return errUsage
		}
		if err := solanaman.ValidateAddress(args[0]); err != nil {
			return err
		}
		logSuccess("Address is valid")
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func doMint(ctx context.Context, sm *solanaman.Solanaman, recipient, btcTxID, amountStr string) error {
	txID, err := common.TxIdFromDisplayHex(btcTxID)
	if err != nil {
		return fmt.Errorf("btc txid: %w", err)
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	sig, err := sm.Mint(ctx, recipient, txID, amount)
	if err != nil {
		return err
	}
	logSuccess(fmt.Sprintf("Mint submitted: %s", sig))
	return nil
}

func doBurn(ctx context.Context, sm *solanaman.Solanaman, amountStr, btcAddr, operatorStr string) error {
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	operator, err := strconv.ParseUint(operatorStr, 10, 64)
	if err != nil {
		return fmt.Errorf("operator id: %w", err)
	}

	sig, err := sm.Burn(ctx, amount, btcAddr, operator)
	if err != nil {
		return err
	}
	logSuccess(fmt.Sprintf("Burn submitted: %s", sig))
	return nil
}

func doVerify(ctx context.Context, sm *solanaman.Solanaman, paramsFile string) error {
	height, proof, err := loadVerifyParams(paramsFile)
	if err != nil {
		return err
	}
	logInfo(fmt.Sprintf("Verifying %s at height %d", common.TxIdToDisplayHex(proof.TxID), height))

	sig, err := sm.VerifyTransaction(ctx, height, proof)
	if err != nil {
		return err
	}
	logSuccess(fmt.Sprintf("Verify transaction submitted: %s", sig))
	return nil
}

func doParse(ctx context.Context, sm *solanaman.Solanaman, sig string) error {
	ev, err := sm.ParseTransactionEvent(ctx, sig)
	if err != nil {
		return err
	}
	switch e := ev.(type) {
	case *solanaman.MintEvent:
		logSuccess(fmt.Sprintf("Mint event: to=%s value=%d", e.To, e.Value))
	case *solanaman.BurnEvent:
		logSuccess(fmt.Sprintf("Burn event: from=%s btc_addr=%s value=%d operator_id=%d", e.From, e.BtcAddr, e.Value, e.OperatorID))
	default:
		logInfo("No bridge event in transaction")
	}
	return nil
}
