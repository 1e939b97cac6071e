package engine

import "errors"

var ErrAlreadyStreaming = errors.New("session already streaming")
var ErrNotStreaming = errors.New("session not streaming")
var ErrInvalidFileType = errors.New("invalid file type")
var ErrNoFile = errors.New("no file loaded")
var ErrAnalysisInProgress = errors.New("analysis already in progress")
var ErrStaleAnalysis = errors.New("stale analysis")
var ErrNotVideo = errors.New("playback requires a video")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	// live
	CmdStartStream   CommandType = "StartStream"
	CmdStopStream    CommandType = "StopStream"
	CmdElapsedTick   CommandType = "ElapsedTick"
	CmdDetectionTick CommandType = "DetectionTick"

	// upload
	CmdLoadFile         CommandType = "LoadFile"
	CmdAnalyze          CommandType = "Analyze"
	CmdCompleteAnalysis CommandType = "CompleteAnalysis"
	CmdRemoveFile       CommandType = "RemoveFile"
	CmdTogglePlayback   CommandType = "TogglePlayback"
	CmdTimeUpdate       CommandType = "TimeUpdate"
	CmdPlaybackEnded    CommandType = "PlaybackEnded"
	CmdSetDuration      CommandType = "SetDuration"
)

/*
	CmdStartStream    -> EvtStreamStarted
	CmdElapsedTick    -> EvtElapsedAdvanced
	CmdDetectionTick  -> EvtPoseDetected
	CmdStopStream     -> EvtStreamStopped (nothing when already idle)

	CmdLoadFile         -> EvtFileLoaded (EvtAnalysisCancelled first if one was pending)
	CmdAnalyze          -> EvtAnalysisStarted
	CmdCompleteAnalysis -> EvtAnalysisCompleted
	CmdRemoveFile       -> EvtFileRemoved (EvtAnalysisCancelled first if one was pending)
	playback commands   -> EvtPlaybackChanged
*/

type EventType string

const (
	EvtStreamStarted     EventType = "StreamStarted"
	EvtStreamStopped     EventType = "StreamStopped"
	EvtElapsedAdvanced   EventType = "ElapsedAdvanced"
	EvtPoseDetected      EventType = "PoseDetected"
	EvtFileLoaded        EventType = "FileLoaded"
	EvtFileRemoved       EventType = "FileRemoved"
	EvtAnalysisStarted   EventType = "AnalysisStarted"
	EvtAnalysisCancelled EventType = "AnalysisCancelled"
	EvtAnalysisCompleted EventType = "AnalysisCompleted"
	EvtPlaybackChanged   EventType = "PlaybackChanged"
)

type Event struct {
	Type       EventType
	Generation int
}
