package stream

import (
	"encoding/json"
	"fmt"

	"github.com/uyouii/cuffless-bp/common"
	"github.com/uyouii/cuffless-bp/model"
)

// WindowMessage is the wire form of one window of one subject.
type WindowMessage struct {
	SubjectID string `json:"subject_id"`
	model.Window
}

func DecodeWindow(data []byte) (*WindowMessage, error) {
	msg := &WindowMessage{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode window: %w", err)
	}
	if msg.SubjectID == "" {
		return nil, fmt.Errorf("window without subject_id: %w", common.ErrorInvalidValue)
	}
	return msg, nil
}

func ResultSubject(prefix, subjectID string) string {
	return prefix + "." + subjectID
}
