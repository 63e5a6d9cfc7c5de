package rag

import (
	"context"
	"time"
)

// Type reveals answer one character at a time, calling emit with the text
// shown so far after every character.
func Type(ctx context.Context, answer string, delay time.Duration, emit func(partial string) error) error {
	runes := []rune(answer)
	if len(runes) == 0 {
		return emit("")
	}

	for i := range runes {
		if err := emit(string(runes[:i+1])); err != nil {
			return err
		}
		if delay <= 0 || i == len(runes)-1 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}
