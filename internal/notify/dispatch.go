package notify

import (
	"sync"

	"taskhub/internal/logger"

	"go.uber.org/zap"
)

// Dispatcher запускает побочные эффекты отсоединённо от вызывающей
// операции: мутация возвращается вызывающему, не дожидаясь доставки.
// Паника или ошибка эффекта логируется и никуда не всплывает.
type Dispatcher struct {
	wg sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Go(name string, fn func() error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Dispatch: Паника в побочном эффекте", nil,
					zap.String("effect", name),
					zap.Any("panic", r))
			}
		}()

		if err := fn(); err != nil {
			logger.Warn("Dispatch: Побочный эффект завершился с ошибкой",
				zap.String("effect", name),
				zap.Error(err))
		}
	}()
}

// Wait дожидается всех запущенных эффектов. Нужен тестам
// и graceful shutdown, рабочий путь его не вызывает.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
