package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ledger-rpc/message"
)

func sendHello(ctx context.Context, d *Dispatcher) error {
	if resp := d.send(ctx, message.NewHello()); resp != nil {
		d.printResponse(resp)
	}
	return nil
}

func sendTransaction(ctx context.Context, d *Dispatcher) error {
	key, err := d.cfg.Prompter.Prompt(ctx, "Enter the recipient's public key: ")
	if err != nil {
		return err
	}
	amount, err := PromptUntilValid(ctx, d.cfg.Prompter, d.cfg.Out,
		"Enter the transaction amount (must be a positive integer): ",
		message.ParseAmount,
		"Invalid input. Please enter a valid positive integer for the amount.")
	if err != nil {
		return err
	}
	fee, err := PromptUntilValid(ctx, d.cfg.Prompter, d.cfg.Out,
		"Enter the transaction fee (must be a non-negative integer, can be zero): ",
		message.ParseFee,
		"Invalid input. Please enter a valid non-negative integer for the fee.")
	if err != nil {
		return err
	}

	tx := message.Transaction{RecipientPublicKey: key, Amount: amount, Fee: fee}
	if resp := d.send(ctx, tx); resp != nil {
		d.printResponse(resp)
	}
	return nil
}

func sendComputation(ctx context.Context, d *Dispatcher) error {
	filename, err := d.cfg.Prompter.Prompt(ctx, "Enter the JSON file name: ")
	if err != nil {
		return err
	}

	comp, err := message.LoadComputation(filename)
	if err != nil {
		d.setState(Rendering)
		var jfe *message.JSONFormatError
		switch {
		case errors.Is(err, message.ErrComputationNotFound):
			fmt.Fprintf(d.cfg.Out, "File %s not found.\n", filename)
		case errors.As(err, &jfe):
			fmt.Fprintln(d.cfg.Out, "Invalid JSON format in the file.")
		default:
			fmt.Fprintf(d.cfg.Out, "Error: %v\n", err)
		}
		return nil
	}

	// The node routes on "type"; the file is sent as-is either way.
	if tag, ok := comp.Tag(); !ok || tag != message.TypeComputation {
		d.logger.Warn("computation file is not tagged as a computation",
			zap.String("file", filename), zap.Bool("has_type", ok), zap.Int("type", int(tag)))
	}

	if resp := d.send(ctx, comp); resp != nil {
		d.printResponse(resp)
	}
	return nil
}

func sendOutput(ctx context.Context, d *Dispatcher) error {
	height, err := PromptUntilValid(ctx, d.cfg.Prompter, d.cfg.Out,
		"Enter the block height (>= 0): ",
		message.ParseBlockHeight,
		"Invalid input. Please enter a valid non-negative integer for the block height.")
	if err != nil {
		return err
	}
	index, err := PromptUntilValid(ctx, d.cfg.Prompter, d.cfg.Out,
		"Enter the computation index (>= 0): ",
		message.ParseComputationIndex,
		"Invalid input. Please enter a valid non-negative integer for the computation index.")
	if err != nil {
		return err
	}
	keyFile, err := d.cfg.Prompter.Prompt(ctx, "Enter the private key filename: ")
	if err != nil {
		return err
	}

	resp := d.send(ctx, message.OutputQuery{BlockHeight: height, ComputationIndex: index})
	if resp == nil {
		return nil
	}
	if !resp.OK() {
		msg := resp.Message
		if msg == "" {
			msg = message.StatusText(resp.Status)
		}
		fmt.Fprintf(d.cfg.Out, "Server returned status %d: %s\n", resp.Status, msg)
		return nil
	}
	if resp.Output == "" {
		fmt.Fprintln(d.cfg.Out, "No 'output' field found in the response.")
		return nil
	}

	plaintext, err := d.cfg.Decrypter.Decrypt(ctx, resp.Output, keyFile)
	if err != nil {
		fmt.Fprintf(d.cfg.Out, "Decryption failed: %v\n", err)
		return nil
	}
	fmt.Fprintln(d.cfg.Out, "Computation result: ")
	fmt.Fprintln(d.cfg.Out, plaintext)
	return nil
}
