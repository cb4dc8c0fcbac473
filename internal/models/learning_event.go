package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownAction = errors.New("unknown learning event action")

// Auxiliary carries optional client signals attached to an event.
type Auxiliary struct {
	PlaybackSpeed *float64       `json:"playback_speed,omitempty"`
	IsHidden      *bool          `json:"is_hidden,omitempty"`
	IsMuted       *bool          `json:"is_muted,omitempty"`
	Evidence      map[string]any `json:"evidence,omitempty"`
}

// LearningEvent is the part shared by every subject's events.
// Position is a page number for documents and seconds for videos.
type LearningEvent struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FileID    uuid.UUID `json:"file_id"`
	Timestamp time.Time `json:"timestamp"`
	Position  float64   `json:"position"`
	Aux       Auxiliary `json:"auxiliary"`
}

// ──── PDF actions ────

type PDFAction interface {
	pdfAction()
	Name() string
}

type PDFOpen struct{}

type PDFPageTurn struct {
	PageNum int
}

type PDFFinish struct{}

type PDFClose struct{}

func (PDFOpen) pdfAction()     {}
func (PDFPageTurn) pdfAction() {}
func (PDFFinish) pdfAction()   {}
func (PDFClose) pdfAction()    {}

func (PDFOpen) Name() string     { return "open" }
func (PDFPageTurn) Name() string { return "page_turn" }
func (PDFFinish) Name() string   { return "finish" }
func (PDFClose) Name() string    { return "close" }

type PDFEvent struct {
	LearningEvent
	Action PDFAction `json:"-"`
}

// PageNum reports the page carried by the event, if any.
func (e PDFEvent) PageNum() (int, bool) {
	if turn, ok := e.Action.(PDFPageTurn); ok {
		return turn.PageNum, true
	}
	return 0, false
}

// ParsePDFAction maps a stored action name to its typed form.
func ParsePDFAction(name string, pageNum *int) (PDFAction, error) {
	switch name {
	case "open":
		return PDFOpen{}, nil
	case "page_turn":
		if pageNum == nil {
			return nil, fmt.Errorf("page_turn without page number")
		}
		return PDFPageTurn{PageNum: *pageNum}, nil
	case "finish":
		return PDFFinish{}, nil
	case "close":
		return PDFClose{}, nil
	default:
		return nil, fmt.Errorf("%w: pdf %q", ErrUnknownAction, name)
	}
}

// ──── Video actions ────

type VideoAction interface {
	videoAction()
	Name() string
}

type VideoPlay struct{ CurrentTime float64 }

type VideoPause struct{ CurrentTime float64 }

type VideoSeek struct{ CurrentTime float64 }

type VideoTimeUpdate struct{ CurrentTime float64 }

type VideoFinish struct{ CurrentTime float64 }

type VideoSpeedChanged struct{ PlaybackSpeed *float64 }

func (VideoPlay) videoAction()         {}
func (VideoPause) videoAction()        {}
func (VideoSeek) videoAction()         {}
func (VideoTimeUpdate) videoAction()   {}
func (VideoFinish) videoAction()       {}
func (VideoSpeedChanged) videoAction() {}

func (VideoPlay) Name() string         { return "play" }
func (VideoPause) Name() string        { return "pause" }
func (VideoSeek) Name() string         { return "seek" }
func (VideoTimeUpdate) Name() string   { return "timeupdate" }
func (VideoFinish) Name() string       { return "finish" }
func (VideoSpeedChanged) Name() string { return "speed_changed" }

type VideoEvent struct {
	LearningEvent
	Action VideoAction `json:"-"`
}

// ParseVideoAction maps a stored action name to its typed form. currentTime is
// the playback position recorded with the event.
func ParseVideoAction(name string, currentTime float64, playbackSpeed *float64) (VideoAction, error) {
	switch name {
	case "play":
		return VideoPlay{CurrentTime: currentTime}, nil
	case "pause":
		return VideoPause{CurrentTime: currentTime}, nil
	case "seek":
		return VideoSeek{CurrentTime: currentTime}, nil
	case "timeupdate":
		return VideoTimeUpdate{CurrentTime: currentTime}, nil
	case "finish":
		return VideoFinish{CurrentTime: currentTime}, nil
	case "speed_changed":
		return VideoSpeedChanged{PlaybackSpeed: playbackSpeed}, nil
	default:
		return nil, fmt.Errorf("%w: video %q", ErrUnknownAction, name)
	}
}

// ──── Ingestion payloads ────

type RecordPDFEventRequest struct {
	FileID    uuid.UUID      `json:"file_id"`
	Action    string         `json:"action"`
	PageNum   *int           `json:"page_num"`
	Timestamp *time.Time     `json:"timestamp"`
	IsHidden  *bool          `json:"is_hidden"`
	Evidence  map[string]any `json:"evidence"`
}

type RecordVideoEventRequest struct {
	FileID        uuid.UUID      `json:"file_id"`
	Action        string         `json:"action"`
	CurrentTime   float64        `json:"current_time"`
	PlaybackSpeed *float64       `json:"playback_speed"`
	Timestamp     *time.Time     `json:"timestamp"`
	IsHidden      *bool          `json:"is_hidden"`
	IsMuted       *bool          `json:"is_muted"`
	Evidence      map[string]any `json:"evidence"`
}
