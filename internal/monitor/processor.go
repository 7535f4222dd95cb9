package monitor

import (
	"sync"

	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"gorm.io/gorm"
)

// EventProcessor 事件处理器接口
// 处理器是镜像状态的唯一写入方：标志位只在链上事件确认后转移
type EventProcessor interface {
	EventName() string
	Process(event *model.EventModel, eventData map[string]interface{}) error
}

// ProcessorManager 事件处理器管理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[string]EventProcessor
}

// NewProcessorManager 创建处理器管理器并注册全部处理器
func NewProcessorManager(db *gorm.DB) *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[string]EventProcessor),
	}

	manager.RegisterProcessor(NewProjectCreatedProcessor(db))
	manager.RegisterProcessor(NewMilestoneCompletedProcessor(db))
	manager.RegisterProcessor(NewMilestoneReleasedProcessor(db))

	logger.Info("ProcessorManager initialized with %d processors", len(manager.processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.processors[processor.EventName()] = processor
	logger.Info("Registered processor for event: %s", processor.EventName())
}

// ProcessEvent 分发事件到对应处理器
func (pm *ProcessorManager) ProcessEvent(event *model.EventModel, eventData map[string]interface{}) error {
	pm.mu.RLock()
	processor, exists := pm.processors[event.EventName]
	pm.mu.RUnlock()

	if !exists {
		logger.Warn("No processor found for event: %s", event.EventName)
		return nil // 跳过未知事件类型
	}

	return processor.Process(event, eventData)
}
