package rabbitmq

import (
	"fmt"

	"listam-parser-service/internal/core/port"
	"listam-parser-service/pkg/rabbitmq/rabbitmq_common"
)

// PkgLoggerBridge пишет логи менеджера соединений и publisher-а из pkg/rabbitmq в LoggerPort сервиса
type PkgLoggerBridge struct {
	logger port.LoggerPort
}

func NewPkgLoggerBridge(logger port.LoggerPort) rabbitmq_common.Logger {
	return &PkgLoggerBridge{logger: logger}
}

// fieldsFromPairs переводит пары key/value в Fields.
// Нестроковый ключ приводится к строке, значение без пары попадает в поле "extra".
func fieldsFromPairs(keysAndValues []interface{}) port.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(port.Fields, len(keysAndValues)/2+1)
	i := 0
	for ; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	if i < len(keysAndValues) {
		fields["extra"] = keysAndValues[i]
	}
	return fields
}

func (b *PkgLoggerBridge) Debug(msg string, keysAndValues ...interface{}) {
	b.logger.Debug(msg, fieldsFromPairs(keysAndValues))
}

func (b *PkgLoggerBridge) Info(msg string, keysAndValues ...interface{}) {
	b.logger.Info(msg, fieldsFromPairs(keysAndValues))
}

func (b *PkgLoggerBridge) Warn(msg string, keysAndValues ...interface{}) {
	b.logger.Warn(msg, fieldsFromPairs(keysAndValues))
}

func (b *PkgLoggerBridge) Error(err error, msg string, keysAndValues ...interface{}) {
	b.logger.Error(msg, err, fieldsFromPairs(keysAndValues))
}
