package enums

import "fmt"

// WizardPage is a state of the quotation wizard navigation controller.
type WizardPage string

const (
	PageClientSelection      WizardPage = "client_selection"
	PageServiceTypeSelection WizardPage = "service_type_selection"
	PageServiceDetailCapture WizardPage = "service_detail_capture"
	PageServiceReview        WizardPage = "service_review"
)

// Linear predecessor chain walked by back.
var wizardPageChain = []WizardPage{
	PageClientSelection,
	PageServiceTypeSelection,
	PageServiceDetailCapture,
	PageServiceReview,
}

// WizardPages returns the pages in back-chain order.
func WizardPages() []WizardPage {
	out := make([]WizardPage, len(wizardPageChain))
	copy(out, wizardPageChain)
	return out
}

// Index returns the page position in the back chain or -1.
func (p WizardPage) Index() int {
	for i, candidate := range wizardPageChain {
		if candidate == p {
			return i
		}
	}
	return -1
}

func (p WizardPage) IsValid() bool {
	return p.Index() >= 0
}

// ParseWizardPage converts raw input into WizardPage.
func ParseWizardPage(value string) (WizardPage, error) {
	page := WizardPage(value)
	if !page.IsValid() {
		return "", fmt.Errorf("invalid wizard page %q", value)
	}
	return page, nil
}

// SubmissionStep tracks how far a finalize attempt progressed.
type SubmissionStep string

const (
	StepNotSubmitted      SubmissionStep = "not_submitted"
	StepIDAssigned        SubmissionStep = "id_assigned"
	StepFolderProvisioned SubmissionStep = "folder_provisioned"
	StepFilesUploaded     SubmissionStep = "files_uploaded"
	StepRowPersisted      SubmissionStep = "row_persisted"
	StepComplete          SubmissionStep = "complete"
)

var submissionStepOrder = []SubmissionStep{
	StepNotSubmitted,
	StepIDAssigned,
	StepFolderProvisioned,
	StepFilesUploaded,
	StepRowPersisted,
	StepComplete,
}

// Rank orders steps; unknown steps rank as not submitted.
func (s SubmissionStep) Rank() int {
	for i, candidate := range submissionStepOrder {
		if candidate == s {
			return i
		}
	}
	return 0
}

// Reached reports whether s is at or beyond target.
func (s SubmissionStep) Reached(target SubmissionStep) bool {
	return s.Rank() >= target.Rank()
}

func (s SubmissionStep) IsValid() bool {
	for _, candidate := range submissionStepOrder {
		if candidate == s {
			return true
		}
	}
	return false
}
