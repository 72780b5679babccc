package rpc

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"

	"github.com/meridian-net/meridian/internal/devfsm"
	"github.com/meridian-net/meridian/internal/diff"
)

// DeviceTemplateApply renders template against variables with text/template
// and pushes the rendered body as a candidate edit to every device matching
// devnamePattern (spec.md §6: "device-template-apply{devname, template,
// variables[]} -> returns ok"). Grounded on the teacher's own use of
// text/template for config rendering (pkg/newtlab/patch.go's
// FilePatch/RedisPatch: template.New(name).Funcs(...).Parse(...) then
// Execute into a buffer).
func (c *Controller) DeviceTemplateApply(ctx context.Context, devnamePattern, templateBody string, variables map[string]string) error {
	names, err := c.expandDevices(devnamePattern)
	if err != nil {
		return err
	}

	tmpl, err := template.New("device-template-apply").Parse(templateBody)
	if err != nil {
		return fmt.Errorf("rpc: parsing template: %w", err)
	}
	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, variables); err != nil {
		return fmt.Errorf("rpc: rendering template: %w", err)
	}
	body := rendered.Bytes()

	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = c.applyTemplateOne(ctx, name, body)
		}(i, name)
	}
	wg.Wait()

	var failures []string
	for i, e := range errs {
		if e != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", names[i], e))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("rpc: device-template-apply failed for %v", failures)
	}
	return nil
}

func (c *Controller) applyTemplateOne(ctx context.Context, name string, rendered []byte) error {
	m, err := c.machineFor(name)
	if err != nil {
		return err
	}
	h, err := c.registry.Find(name)
	if err != nil {
		return err
	}
	tree, err := diff.FromXML(rendered, h.SchemaSet())
	if err != nil {
		return fmt.Errorf("binding rendered template to schema: %w", err)
	}
	script := diff.Diff(h.SyncedXML(), tree)
	return m.Push(ctx, script, nil, devfsm.NopReporter{})
}
