package scanner

import (
	"context"
	"errors"
	"io"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
)

// Run подаёт кадры из src в sess до подтверждения кода, конца источника или отмены ctx.
// Перед возвратом сессия (а с ней и src) останавливается. onAttempt, если задан,
// получает каждую попытку.
func Run(ctx context.Context, sess *Session, src Source, onAttempt func(*Attempt)) (string, error) {
	const op = "scanner.Run"

	sess.Attach(src)
	defer sess.Stop()

	for {
		img, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return "", e.Wrap(op, e.ErrNoCodeFound)
		}
		if err != nil {
			return "", e.Wrap(op, err)
		}

		attempt, err := sess.Submit(ctx, img)
		if err != nil {
			return "", e.Wrap(op, err)
		}
		if onAttempt != nil {
			onAttempt(attempt)
		}

		if attempt.Confirmed != "" {
			return attempt.Confirmed, nil
		}
	}
}
