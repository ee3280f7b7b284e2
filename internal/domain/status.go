package domain

// ContainerState — состояние listener-контейнера.
//
// Жизненный цикл:
//
//	STOPPED → STARTING → RUNNING ⇄ RECOVERING
//	             ↘            ↘         ↘
//	         SHUTDOWN_FATAL ←──────────────┘
//	(stop) → STOPPED из любого состояния
type ContainerState string

const (
	// StateStopped — контейнер не запущен (начальное состояние и после stop).
	StateStopped ContainerState = "STOPPED"

	// StateStarting — получение соединения и проверка очередей.
	StateStarting ContainerState = "STARTING"

	// StateRunning — consumers запущены, сообщения доставляются.
	StateRunning ContainerState = "RUNNING"

	// StateRecovering — consumers перезапускаются после потери соединения
	// или обнаруженного несоответствия очереди.
	StateRecovering ContainerState = "RECOVERING"

	// StateShutdownFatal — контейнер остановлен из-за фатальной ошибки.
	// Автоматический перезапуск не выполняется.
	StateShutdownFatal ContainerState = "SHUTDOWN_FATAL"
)

// IsActive возвращает true, если контейнер считается работающим.
func (s ContainerState) IsActive() bool {
	switch s {
	case StateRunning, StateRecovering:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для состояний, из которых контейнер
// выходит только по явному запросу.
func (s ContainerState) IsTerminal() bool {
	switch s {
	case StateStopped, StateShutdownFatal:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что s — известное состояние.
func (s ContainerState) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions — допустимые переходы между состояниями.
var transitions = map[ContainerState][]ContainerState{
	StateStopped:       {StateStarting},
	StateStarting:      {StateRunning, StateShutdownFatal, StateStopped},
	StateRunning:       {StateRecovering, StateStopped},
	StateRecovering:    {StateRunning, StateShutdownFatal, StateStopped},
	StateShutdownFatal: {StateStarting, StateStopped},
}

// CanTransitionTo проверяет, допустим ли переход s → next.
func (s ContainerState) CanTransitionTo(next ContainerState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllContainerStates возвращает все состояния в порядке жизненного цикла.
func AllContainerStates() []ContainerState {
	return []ContainerState{
		StateStopped,
		StateStarting,
		StateRunning,
		StateRecovering,
		StateShutdownFatal,
	}
}
