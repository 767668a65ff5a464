package docstore

import "github.com/yungbote/coursehall-backend/internal/pkg/logger"

func nopLogger() *logger.Logger { return logger.Nop() }
