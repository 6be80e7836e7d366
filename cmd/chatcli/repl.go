package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wolfman30/marketier-assistant/internal/conversation"
)

const replHelp = `commands:
  /slot N        pick the Nth offered time
  /yes           accept the assistant's offer to schedule
  /action NAME   run a quick action (schedule, pricing, playbooks, toolbox)
  /session       print the booking state
  /quit          end the session
separate contact details with " | " to send them as one turn`

// runREPL reads one turn per line from in until EOF, /quit or ctx is done.
func runREPL(ctx context.Context, svc *conversation.Service, in io.Reader, out io.Writer) error {
	session, err := svc.StartSession(ctx)
	if err != nil {
		return err
	}
	printMessage(out, session.Messages[len(session.Messages)-1])
	fmt.Fprintln(out, replHelp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}

		result, err := dispatchLine(ctx, svc, session, line, out)
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		if result == nil {
			continue
		}
		session = result.Session
		printMessage(out, result.Reply)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return svc.EndSession(context.WithoutCancel(ctx), session.ID)
}

func dispatchLine(ctx context.Context, svc *conversation.Service, session *conversation.Session, line string, out io.Writer) (*conversation.TurnResult, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/slot":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(session.Slots) {
			return nil, fmt.Errorf("choose a slot between 1 and %d", len(session.Slots))
		}
		return svc.SelectSlot(ctx, session.ID, session.Slots[n-1].ID)
	case "/yes":
		return svc.AcceptScheduleOffer(ctx, session.ID)
	case "/action":
		return svc.QuickAction(ctx, session.ID, arg)
	case "/session":
		current, err := svc.Session(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "state=%s contact=%+v\n", current.FlowState, current.Contact)
		return nil, nil
	}
	if strings.HasPrefix(cmd, "/") {
		return nil, errors.New("unknown command")
	}
	return svc.SubmitTurn(ctx, session.ID, strings.ReplaceAll(line, " | ", "\n"))
}

func printMessage(out io.Writer, msg conversation.Message) {
	fmt.Fprintf(out, "assistant [%s]: %s\n", msg.Source, msg.Text)
	for i, slot := range msg.Slots {
		fmt.Fprintf(out, "  %d) %s\n", i+1, slot.DisplayLabel)
	}
	if msg.Booking != nil {
		fmt.Fprintf(out, "  confirmed: %s (%s)\n", msg.Booking.Slot.DisplayLabel, msg.Booking.Provider)
	}
	if msg.Kind == conversation.KindScheduleOffer {
		fmt.Fprintln(out, "  (type /yes to pick a time)")
	}
}
