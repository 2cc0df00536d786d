package importer

// Stage names one step of an import
type Stage string

const (
	StageTemplate Stage = "template"
	StageBuild    Stage = "build"
	StageProject  Stage = "project"
	StageNetwork  Stage = "network"
	StageFlatten  Stage = "flatten"
	StageScenario Stage = "scenario"
)

// stageOrder is the fixed order stages run in
var stageOrder = []Stage{StageTemplate, StageBuild, StageProject, StageNetwork, StageFlatten, StageScenario}

// ProgressEvent reports that Step of Total stages has finished
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// ProgressFunc receives progress events. It runs on the import goroutine and
// must not block.
type ProgressFunc func(ProgressEvent)

// ProgressBus fans progress events out to subscribers
type ProgressBus struct {
	subscribers []ProgressFunc
}

// NewProgressBus creates an empty bus
func NewProgressBus() *ProgressBus {
	return &ProgressBus{
		subscribers: make([]ProgressFunc, 0),
	}
}

// Subscribe adds fn to the subscriber list
func (pb *ProgressBus) Subscribe(fn ProgressFunc) {
	pb.subscribers = append(pb.subscribers, fn)
}

// Publish delivers event to every subscriber in subscription order
func (pb *ProgressBus) Publish(event ProgressEvent) {
	if pb == nil {
		return
	}
	for _, fn := range pb.subscribers {
		fn(event)
	}
}

func (pb *ProgressBus) stageDone(stage Stage, message string) {
	step := 0
	for i, s := range stageOrder {
		if s == stage {
			step = i + 1
			break
		}
	}
	pb.Publish(ProgressEvent{Stage: stage, Step: step, Total: len(stageOrder), Message: message})
}
