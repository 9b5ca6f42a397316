package internal

import (
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/internal/handler"
)

// registerManagers builds every registered manager from the shared config.
func registerManagers(conf *handler.RegisterConfig) []handler.Manager {
	var managers []handler.Manager
	for _, register := range handler.Registers {
		manager := register(conf)
		managers = append(managers, manager)
		klog.Infof("Registered manager: %s", manager.GetName())
	}
	return managers
}
