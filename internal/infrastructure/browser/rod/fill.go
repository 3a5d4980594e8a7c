package rod

import (
	"context"
	"fmt"
	"strings"

	"signup-agent/internal/domain/entity"
	"signup-agent/internal/infrastructure/browser/extract"
	"signup-agent/internal/usecase/classify"
	"signup-agent/internal/usecase/fillplan"
	"signup-agent/internal/usecase/formselect"
)

// fillForm is the fill command: snapshot the DOM, pick the target form,
// classify every control, and write the profile values in.
func (c *Context) fillForm(ctx context.Context, cmd entity.FillFormCommand) (entity.Response, error) {
	form, ok, err := c.selectForm(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return entity.FillFormResponse{
			Status:  entity.FillStatusWarning,
			Message: "no sign-up form detected",
		}, nil
	}

	classifier := classify.New(classify.DefaultTable().Merge(cmd.Profile.CustomFields), c.cfg.Threshold)

	filled := 0
	c.hasBirthday = false
	for _, field := range form.Fields {
		if !field.Kind.Fillable() {
			continue
		}

		result, overridden := overrideFor(cmd.Overrides, field)
		if !overridden {
			result = classifier.Classify(field)
		}
		if result.Unknown() {
			continue
		}
		if result.ProfileKey == entity.AttrBirthday {
			c.hasBirthday = true
		}

		value, ok := fillplan.ValueFor(cmd.Profile, result)
		if !ok {
			continue
		}

		wrote, err := c.writeField(ctx, field, value)
		if err != nil {
			c.logger.Warn("field write failed",
				"selector", field.Selector, "fieldType", string(result.FieldType), "error", err)
			continue
		}
		if wrote {
			filled++
		}
	}

	c.selected = &form

	status := entity.FillStatusSuccess
	if filled == 0 {
		status = entity.FillStatusWarning
	}
	return entity.FillFormResponse{
		Status:            status,
		FieldsFilledCount: filled,
		Message:           fmt.Sprintf("%d of %d fields filled", filled, len(form.Fields)),
	}, nil
}

// selectForm extracts candidates from the current DOM and scores them.
func (c *Context) selectForm(ctx context.Context) (entity.FormCandidate, bool, error) {
	snapshot, err := c.domSnapshot(ctx)
	if err != nil {
		return entity.FormCandidate{}, false, err
	}
	forms, err := extract.Forms(snapshot)
	if err != nil {
		return entity.FormCandidate{}, false, err
	}
	form, ok := formselect.SelectBest(forms)
	return form, ok, nil
}

// overrideFor checks the retailer's static selector overrides. An override
// pins the field ahead of heuristic classification, full confidence.
func overrideFor(overrides map[string]entity.ProfileAttribute, field entity.FieldCandidate) (entity.ClassificationResult, bool) {
	if len(overrides) == 0 {
		return entity.ClassificationResult{}, false
	}
	for _, key := range []string{field.Selector, "#" + field.RawID, field.RawName} {
		if key == "" || key == "#" {
			continue
		}
		if attr, ok := overrides[key]; ok {
			return entity.ClassificationResult{
				FieldType:  attr,
				Confidence: 1.0,
				ProfileKey: attr.ProfileKey(),
			}, true
		}
	}
	return entity.ClassificationResult{}, false
}

// writeField coerces value into the control. Every successful write fires
// the page's input and change events: a bare property assignment is invisible
// to reactive page logic and explicitly not enough.
func (c *Context) writeField(ctx context.Context, field entity.FieldCandidate, value string) (bool, error) {
	switch field.Kind {
	case entity.ControlSelect:
		opt, ok := fillplan.MatchOption(field.Options, value)
		if !ok {
			// no matching option: leave unset, not an error
			return false, nil
		}
		return true, c.evalOnField(ctx, field.Selector, `(v) => {
			this.value = v;
			this.dispatchEvent(new Event('input', { bubbles: true }));
			this.dispatchEvent(new Event('change', { bubbles: true }));
		}`, opt.Value)

	case entity.ControlCheckbox:
		return true, c.evalOnField(ctx, field.Selector, `(checked) => {
			this.checked = checked;
			this.dispatchEvent(new Event('input', { bubbles: true }));
			this.dispatchEvent(new Event('change', { bubbles: true }));
		}`, fillplan.Truthy(value))

	case entity.ControlRadio:
		// only the radio whose own value matches gets checked; siblings in
		// the group are left alone
		if !strings.EqualFold(strings.TrimSpace(field.RadioValue), strings.TrimSpace(value)) {
			return false, nil
		}
		return true, c.evalOnField(ctx, field.Selector, `() => {
			this.checked = true;
			this.dispatchEvent(new Event('input', { bubbles: true }));
			this.dispatchEvent(new Event('change', { bubbles: true }));
		}`)

	case entity.ControlDate:
		return true, c.writeText(ctx, field.Selector, fillplan.NormalizeDate(value))

	default:
		return true, c.writeText(ctx, field.Selector, value)
	}
}

func (c *Context) writeText(ctx context.Context, selector, value string) error {
	return c.evalOnField(ctx, selector, `(v) => {
		this.value = v;
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`, value)
}

func (c *Context) evalOnField(ctx context.Context, selector, js string, args ...any) error {
	el, err := c.page.Context(ctx).Timeout(c.timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if _, err := el.Eval(js, args...); err != nil {
		return classifyEvalErr(err)
	}
	return nil
}
