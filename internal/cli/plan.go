package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/director"
	"github.com/ivlev/site2video/internal/engine"
	"github.com/ivlev/site2video/internal/geometry"
	"github.com/ivlev/site2video/internal/layout"
)

func NewPlanCmd(deps *Dependencies) *cobra.Command {
	var (
		flags     recordFlags
		docHeight float64
		targets   []float64
		buttons   []float64
		output    string
		timeline  float64
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Simulate a choreography without a browser and save it as YAML",
		Long: "plan lays out the canvas, places targets at the given document offsets and performs the\n" +
			"choreography on a virtual clock. The YAML holds the acts, the scroll stops and sampled\n" +
			"pointer/scroll keyframes, so timing can be tuned before anything is recorded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if err := flags.apply(cmd.Flags(), cfg); err != nil {
				return err
			}

			lay, err := layout.New(layout.Options{Width: cfg.Width, Height: cfg.Height, ContentWidth: cfg.ContentWidth})
			if err != nil {
				return err
			}
			mapper, err := geometry.NewMapper(lay.Geometry())
			if err != nil {
				return err
			}

			pois := simulatedTargets(float64(cfg.ContentWidth), targets, buttons)
			budget := cfg.Duration
			if budget <= 0 {
				budget = cfg.FallbackDuration
			}

			d := engine.NewDirector(cfg, cfg.Seed)
			plan, err := d.Plan(budget, pois, docHeight, mapper.ViewportHeight())
			if err != nil {
				return err
			}
			report, err := d.Simulate(cmd.Context(), plan, mapper, pois)
			if err != nil {
				return err
			}

			if output == "" {
				output = director.GeneratePlanPath(cfg.PlansDir, time.Now())
			}
			if err := director.WritePlan(plan, output); err != nil {
				return err
			}

			deps.printPlan(plan, timeline, report.Elapsed)
			deps.printf("[*] %d stops, max scroll %.0fpx, %d targets visited, %.2fs simulated\n",
				len(plan.Stops), plan.MaxScroll, report.Visited, report.Elapsed)
			deps.printf("[+++] Plan saved: %s\n", output)
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().Float64Var(&docHeight, "doc-height", 6000, "document height in CSS px")
	cmd.Flags().Float64SliceVar(&targets, "targets", nil, "document offsets of headings/cards")
	cmd.Flags().Float64SliceVar(&buttons, "buttons", nil, "document offsets of call-to-action buttons")
	cmd.Flags().Float64Var(&timeline, "timeline", 0, "print the pointer/scroll state every N seconds")
	cmd.Flags().StringVarP(&output, "output", "o", "", "plan path (default: plans/plan_<timestamp>.yaml)")
	cmd.AddCommand(NewPlanShowCmd(deps))
	return cmd
}

func NewPlanShowCmd(deps *Dependencies) *cobra.Command {
	var timeline float64

	cmd := &cobra.Command{
		Use:   "show [plan.yaml]",
		Short: "Print a saved plan (default: the newest one in the plans directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				latest, err := director.FindLatestPlan(deps.Config.PlansDir)
				if err != nil {
					return err
				}
				path = latest
			}

			plan, err := director.ReadPlan(path)
			if err != nil {
				return err
			}

			deps.printf("[*] Plan: %s\n", path)
			deps.printf("[*] budget %.1fs, max scroll %.0fpx, viewport %.0fpx\n", plan.Budget, plan.MaxScroll, plan.ViewportHeight)
			until := plan.Total()
			if n := len(plan.Keyframes); n > 0 {
				until = plan.Keyframes[n-1].Time
			}
			deps.printPlan(plan, timeline, until)
			for i, st := range plan.Stops {
				mark := ""
				if st.Synthetic {
					mark = " (synthetic)"
				}
				deps.printf("    stop %d: %6.0fpx %-8s glide %5.2fs pause %5.2fs%s\n", i+1, st.ScrollY, st.Kind, st.Glide, st.Pause, mark)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&timeline, "timeline", 0, "print the pointer/scroll state every N seconds")
	return cmd
}

// printPlan lists the acts and, with a positive step, the sampled
// pointer/scroll state up to until.
func (d *Dependencies) printPlan(plan *director.Plan, step, until float64) {
	for _, a := range plan.Acts {
		d.printf("[*] %-15s %6.2fs .. %6.2fs\n", a.Kind, a.Start, a.End())
	}
	if step <= 0 || len(plan.Keyframes) == 0 {
		return
	}
	for t := 0.0; t <= until; t += step {
		kf := director.KeyframeAt(plan.Keyframes, t)
		d.printf("    %6.2fs %-6s pointer (%4.0f, %4.0f) scroll %6.0f\n", t, kf.Focus, kf.PointerX, kf.PointerY, kf.ScrollY)
	}
}

func simulatedTargets(contentWidth float64, targets, buttons []float64) []analyzer.PointOfInterest {
	var elems []analyzer.Element
	for _, y := range targets {
		elems = append(elems, analyzer.Element{Tag: "h2", Text: "Section", Top: y, Left: contentWidth * 0.2, Width: contentWidth * 0.6, Height: 60})
	}
	for _, y := range buttons {
		elems = append(elems, analyzer.Element{Tag: "button", Text: "Get started", Top: y, Left: contentWidth/2 - 120, Width: 240, Height: 56, Filled: true})
	}
	return analyzer.NewScanner(nil).Select(elems)
}
