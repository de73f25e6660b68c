package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"
)

// Edit field names, as reported in InputError
const (
	FieldCPU          = "cpu"
	FieldMemory       = "memory"
	FieldTolerations  = "tolerations"
	FieldNodeSelector = "nodeSelector"
)

// Edits holds the operator's edits of a pending move, as entered.
// Tolerations and NodeSelector accept JSON or YAML.
type Edits struct {
	CPU          string `json:"cpu"`    // millicores
	Memory       string `json:"memory"` // bytes
	Tolerations  string `json:"tolerations"`
	NodeSelector string `json:"nodeSelector"`
	ApplyToOwner bool   `json:"applyToOwner"`
}

// DefaultEdits pre-fills the review form from a plan
func DefaultEdits(plan models.MovePlan) Edits {
	tolerations := plan.Tolerations
	if tolerations == nil {
		tolerations = []corev1.Toleration{}
	}
	selector := plan.NodeSelector
	if selector == nil {
		selector = map[string]string{}
	}

	// both always marshal
	tolText, _ := json.Marshal(tolerations)
	selText, _ := json.Marshal(selector)

	return Edits{
		CPU:          strconv.FormatInt(plan.RequestedCPU, 10),
		Memory:       strconv.FormatInt(plan.RequestedMemory, 10),
		Tolerations:  string(tolText),
		NodeSelector: string(selText),
	}
}

// Parse validates the edits and converts them into typed overrides
func (e Edits) Parse() (models.Overrides, error) {
	var o models.Overrides
	var err error

	if o.RequestedCPU, err = parseAmount(e.CPU); err != nil {
		return o, &InputError{Field: FieldCPU, Err: err}
	}
	if o.RequestedMemory, err = parseAmount(e.Memory); err != nil {
		return o, &InputError{Field: FieldMemory, Err: err}
	}
	if o.Tolerations, err = parseTolerations(e.Tolerations); err != nil {
		return o, &InputError{Field: FieldTolerations, Err: err}
	}
	if o.NodeSelector, err = parseNodeSelector(e.NodeSelector); err != nil {
		return o, &InputError{Field: FieldNodeSelector, Err: err}
	}
	return o, nil
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%d is negative", v)
	}
	return v, nil
}

func parseTolerations(text string) ([]corev1.Toleration, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var tolerations []corev1.Toleration
	if err := yaml.UnmarshalStrict([]byte(text), &tolerations); err != nil {
		return nil, fmt.Errorf("expected a list of tolerations: %w", err)
	}

	for i, t := range tolerations {
		if err := validateToleration(t); err != nil {
			return nil, fmt.Errorf("toleration %d: %w", i, err)
		}
	}
	return tolerations, nil
}

func validateToleration(t corev1.Toleration) error {
	if t.Key != "" {
		if errs := validation.IsQualifiedName(t.Key); len(errs) > 0 {
			return fmt.Errorf("key %q: %s", t.Key, strings.Join(errs, "; "))
		}
	}

	switch t.Operator {
	case "", corev1.TolerationOpEqual:
		if t.Key == "" && t.Value != "" {
			return errors.New("value requires a key")
		}
	case corev1.TolerationOpExists:
		if t.Value != "" {
			return errors.New("operator Exists takes no value")
		}
	default:
		return fmt.Errorf("unsupported operator %q", t.Operator)
	}

	switch t.Effect {
	case "", corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute:
	default:
		return fmt.Errorf("unsupported effect %q", t.Effect)
	}
	return nil
}

func parseNodeSelector(text string) (map[string]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var selector map[string]string
	if err := yaml.UnmarshalStrict([]byte(text), &selector); err != nil {
		return nil, fmt.Errorf("expected a map of label keys to values: %w", err)
	}

	for k, v := range selector {
		if errs := validation.IsQualifiedName(k); len(errs) > 0 {
			return nil, fmt.Errorf("key %q: %s", k, strings.Join(errs, "; "))
		}
		if errs := validation.IsValidLabelValue(v); len(errs) > 0 {
			return nil, fmt.Errorf("value %q for %q: %s", v, k, strings.Join(errs, "; "))
		}
	}
	return selector, nil
}
