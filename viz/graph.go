// ABOUTME: GraphViz rendering of the organization hierarchy and order flows
// ABOUTME: Pulls entities through the resource clients and emits DOT source
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/mbgctl/models"
	"github.com/harperreed/mbgctl/resources"
)

// maxEntities caps how much of each collection a graph pulls in.
const maxEntities = 500

type GraphGenerator struct {
	set *resources.Set
}

func NewGraphGenerator(set *resources.Set) *GraphGenerator {
	return &GraphGenerator{set: set}
}

func render(ctx context.Context, label string, build func(graph *cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel(label)
	graph.SetRankDir(cgraph.LRRank)

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func node(graph *cgraph.Graph, name, label, shape, color string) (*cgraph.Node, error) {
	n, err := graph.CreateNodeByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create node %s: %w", name, err)
	}
	n.SetLabel(label)
	n.SetShape(cgraph.Shape(shape))
	n.SetStyle("filled")
	n.SetFillColor(color)
	return n, nil
}

// GenerateOrganizationGraph draws organizations and their branches. An empty
// organizationID draws every organization.
func (g *GraphGenerator) GenerateOrganizationGraph(ctx context.Context, organizationID string) (string, error) {
	var orgs []models.Organization
	if organizationID != "" {
		org, err := g.set.Organizations.Get(ctx, organizationID)
		if err != nil {
			return "", fmt.Errorf("failed to fetch organization: %w", err)
		}
		orgs = []models.Organization{*org}
	} else {
		all, err := g.set.Organizations.All(ctx, 100, maxEntities)
		if err != nil {
			return "", fmt.Errorf("failed to fetch organizations: %w", err)
		}
		orgs = all
	}

	return render(ctx, "Organizations", func(graph *cgraph.Graph) error {
		for _, org := range orgs {
			color := "lightblue"
			if !org.IsActive {
				color = "lightgray"
			}
			orgNode, err := node(graph, "org_"+org.ID, fmt.Sprintf("%s\n(%s)", org.Name, org.Code), "box", color)
			if err != nil {
				return err
			}

			branches, err := g.set.Branches(org.ID)
			if err != nil {
				return err
			}
			list, err := branches.All(ctx, 0, maxEntities)
			if err != nil {
				return fmt.Errorf("failed to fetch branches for %s: %w", org.Name, err)
			}

			for _, b := range list {
				shape := "ellipse"
				if b.IsHeadquarters {
					shape = "doubleoctagon"
				}
				branchNode, err := node(graph, "branch_"+b.ID, b.Name, shape, "lightgreen")
				if err != nil {
					return err
				}
				if _, err := graph.CreateEdgeByName("", orgNode, branchNode); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
		}
		return nil
	})
}

// GenerateOrderGraph draws supplier -> school edges labelled with order status.
func (g *GraphGenerator) GenerateOrderGraph(ctx context.Context) (string, error) {
	orders, err := g.set.Orders.All(ctx, 100, maxEntities)
	if err != nil {
		return "", fmt.Errorf("failed to fetch orders: %w", err)
	}
	suppliers, err := g.set.Suppliers.All(ctx, 100, maxEntities)
	if err != nil {
		return "", fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	schools, err := g.set.Schools.All(ctx, 100, maxEntities)
	if err != nil {
		return "", fmt.Errorf("failed to fetch schools: %w", err)
	}

	supplierNames := make(map[string]string, len(suppliers))
	for _, s := range suppliers {
		supplierNames[s.ID] = s.Name
	}
	schoolNames := make(map[string]string, len(schools))
	for _, s := range schools {
		schoolNames[s.ID] = s.Name
	}

	return render(ctx, "Orders", func(graph *cgraph.Graph) error {
		nodes := make(map[string]*cgraph.Node)
		lookup := func(key, label, shape, color string) (*cgraph.Node, error) {
			if n, ok := nodes[key]; ok {
				return n, nil
			}
			n, err := node(graph, key, label, shape, color)
			if err != nil {
				return nil, err
			}
			nodes[key] = n
			return n, nil
		}

		for _, o := range orders {
			supplierID, schoolID := o.ResolvedSupplierID(), o.ResolvedSchoolID()
			if supplierID == "" || schoolID == "" {
				continue
			}
			if _, ok := supplierNames[supplierID]; !ok && o.SupplierName() != "" {
				supplierNames[supplierID] = o.SupplierName()
			}
			if _, ok := schoolNames[schoolID]; !ok && o.SchoolName() != "" {
				schoolNames[schoolID] = o.SchoolName()
			}
			from, err := lookup("supplier_"+supplierID, nameOr(supplierNames, supplierID), "box", "khaki")
			if err != nil {
				return err
			}
			to, err := lookup("school_"+schoolID, nameOr(schoolNames, schoolID), "ellipse", "lightblue")
			if err != nil {
				return err
			}
			edge, err := graph.CreateEdgeByName("order_"+o.ID, from, to)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(fmt.Sprintf("%s x%d", o.Status, o.Quantity))
		}
		return nil
	})
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return "Unknown (" + id + ")"
}
