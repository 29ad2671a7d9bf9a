package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/yenchangchen131/BEARS-dataset/pkg/model"
)

func TestNewDocID(t *testing.T) {
	// values computed with uuid5(NAMESPACE_DNS, ...) so IDs stay compatible
	// with previously published generations
	gt.Equal(t, model.NewDocID(model.SourceDRCD, "1001-1-1").String(), "3e3ac9f4-66a1-5784-b5f5-b838fa7166f1")
	gt.Equal(t, model.NewDocID(model.SourceMSMarco, "19699_p0").String(), "91b0b1c9-eee8-5a9e-a65a-fe8e2bb4ff05")

	gt.Equal(t, model.NewDocID(model.SourceDRCD, "x"), model.NewDocID(model.SourceDRCD, "x"))
	gt.NotEqual(t, model.NewDocID(model.SourceDRCD, "x"), model.NewDocID(model.SourceSQuADv2, "x"))
}

func TestNewQuestionID(t *testing.T) {
	gt.Equal(t, model.NewQuestionID(model.SourceDRCD, "1001-1-1").String(), "f315de0d-fa2a-55f8-89e8-d8f2abcd863d")
	gt.NotEqual(t, model.NewQuestionID(model.SourceDRCD, "1001-1-1").String(), model.NewDocID(model.SourceDRCD, "1001-1-1").String())
}
