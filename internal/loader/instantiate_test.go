package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/behaviortreego/internal/blackboard"
	"github.com/vk/behaviortreego/internal/bt"
	"github.com/vk/behaviortreego/internal/bterr"
	"github.com/vk/behaviortreego/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func buildTree(t *testing.T, xml string) *bt.Tree {
	t.Helper()
	tree, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), xml, blackboard.New())
	require.NoError(t, err)
	return tree
}

func TestInstantiate_SequenceWithTwoActions(t *testing.T) {
	tree := buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <ActionX/>
      <ActionY/>
    </Sequence>
  </BehaviorTree>
</root>`)

	require.NotNil(t, tree.Root)
	assert.Equal(t, bt.KindControl, tree.Root.Kind())
	assert.Equal(t, "Sequence", tree.Root.ID())

	children := tree.Root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "ActionX", children[0].ID())
	assert.Equal(t, "ActionY", children[1].ID())

	// Flat node list is pre-order and the root is reachable from every node.
	require.Len(t, tree.Nodes, 3)
	assert.Same(t, tree.Root, tree.Nodes[0])
	assert.Same(t, children[0], tree.Nodes[1])
	assert.Same(t, children[1], tree.Nodes[2])
}

func TestInstantiate_InstanceNames(t *testing.T) {
	tree := buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence name="main_sequence">
      <SaySomething name="greeter" message="hello"/>
      <ActionX/>
    </Sequence>
  </BehaviorTree>
</root>`)

	assert.Equal(t, "main_sequence", tree.Root.Name())
	assert.Equal(t, "greeter", tree.Root.Children()[0].Name())
	// The name defaults to the catalog ID.
	assert.Equal(t, "ActionX", tree.Root.Children()[1].Name())
}

func TestInstantiate_PortBindingSplit(t *testing.T) {
	tree := buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <SaySomething message="hello"/>
      <CalculateGoal goal="{target}"/>
      <Counter count="{n}"/>
    </Sequence>
  </BehaviorTree>
</root>`)

	say := tree.Nodes[1]
	assert.Equal(t, map[string]string{"message": "hello"}, say.Config().InputPorts)
	assert.Empty(t, say.Config().OutputPorts)

	calc := tree.Nodes[2]
	assert.Empty(t, calc.Config().InputPorts)
	assert.Equal(t, map[string]string{"goal": "{target}"}, calc.Config().OutputPorts)

	// An INOUT port populates both tables.
	counter := tree.Nodes[3]
	assert.Equal(t, map[string]string{"count": "{n}"}, counter.Config().InputPorts)
	assert.Equal(t, map[string]string{"count": "{n}"}, counter.Config().OutputPorts)
}

func TestInstantiate_UnknownPortIsBindingError(t *testing.T) {
	_, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <SaySomething mesage="typo"/>
  </BehaviorTree>
</root>`, blackboard.New())

	var bErr *bterr.BindingError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "mesage", bErr.Port)
	assert.Equal(t, "SaySomething", bErr.NodeID)
}

func TestInstantiate_TypeRegistry(t *testing.T) {
	t.Run("conflicting types fail", func(t *testing.T) {
		// goal is written as number and pose read as string via the
		// same blackboard key.
		_, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <CalculateGoal goal="{pose}"/>
      <SaySomething message="{pose}"/>
    </Sequence>
  </BehaviorTree>
</root>`, blackboard.New())

		var tErr *bterr.TypeConflictError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, "pose", tErr.Key)
	})

	t.Run("same type twice succeeds", func(t *testing.T) {
		buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <CalculateGoal goal="{target}"/>
      <MoveBase goal="{target}"/>
    </Sequence>
  </BehaviorTree>
</root>`)
	})

	t.Run("literals bypass the registry", func(t *testing.T) {
		// The same spelling as a key name, but bound as a literal.
		buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <CalculateGoal goal="{pose}"/>
      <SaySomething message="pose"/>
    </Sequence>
  </BehaviorTree>
</root>`)
	})

	t.Run("legacy dollar reference syntax", func(t *testing.T) {
		_, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <CalculateGoal goal="${pose}"/>
      <SaySomething message="${pose}"/>
    </Sequence>
  </BehaviorTree>
</root>`, blackboard.New())

		var tErr *bterr.TypeConflictError
		assert.ErrorAs(t, err, &tErr)
	})
}

func TestInstantiate_DecoratorForms(t *testing.T) {
	tree := buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Decorator ID="RetryUntilSuccessful" num_attempts="3">
      <Inverter>
        <Timeout msec="500">
          <ActionX/>
        </Timeout>
      </Inverter>
    </Decorator>
  </BehaviorTree>
</root>`)

	retry := tree.Root
	assert.Equal(t, bt.KindDecorator, retry.Kind())
	assert.Equal(t, "RetryUntilSuccessful", retry.ID())
	assert.Equal(t, map[string]string{"num_attempts": "3"}, retry.Config().InputPorts)

	inverter := retry.Child()
	require.NotNil(t, inverter)
	assert.Equal(t, "Inverter", inverter.ID())

	timeout := inverter.Child()
	require.NotNil(t, timeout)
	assert.Equal(t, "Timeout", timeout.ID())
	assert.Equal(t, bt.KindDecorator, timeout.Kind())
	assert.Equal(t, "ActionX", timeout.Child().ID())
}

func TestInstantiate_SubTreeScoping(t *testing.T) {
	tree := buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <CalculateGoal goal="{y}"/>
      <SubTree ID="B">
        <remap internal="x" external="y"/>
      </SubTree>
    </Sequence>
  </BehaviorTree>
  <BehaviorTree ID="B">
    <MoveBase goal="{x}"/>
  </BehaviorTree>
</root>`)

	require.Len(t, tree.BlackboardStack, 2)
	rootScope := tree.BlackboardStack[0]
	nested := tree.BlackboardStack[1]
	assert.Same(t, rootScope, nested.Parent())

	// The bridge owns the nested instantiation.
	bridge := tree.Nodes[2]
	assert.Equal(t, bt.KindSubTreeBridge, bridge.Kind())
	assert.Equal(t, "B", bridge.ID())
	assert.Equal(t, "B", bridge.Name())
	require.NotNil(t, bridge.Child())
	assert.Equal(t, "MoveBase", bridge.Child().ID())

	// x in the nested scope resolves to y in the enclosing scope.
	rootScope.Set("y", cty.NumberIntVal(9))
	val, ok := nested.Get("x")
	require.True(t, ok)
	assert.True(t, val.RawEquals(cty.NumberIntVal(9)))
}

func TestInstantiate_SubTreeTypeConflictAcrossScopes(t *testing.T) {
	// goal is declared number through the remapped key in B, then the
	// enclosing scope binds the same key as string: the registry is
	// session-global.
	_, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <Sequence>
      <SubTree ID="B">
        <remap internal="x" external="y"/>
      </SubTree>
      <SaySomething message="{x}"/>
    </Sequence>
  </BehaviorTree>
  <BehaviorTree ID="B">
    <MoveBase goal="{x}"/>
  </BehaviorTree>
</root>`, blackboard.New())

	var tErr *bterr.TypeConflictError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "x", tErr.Key)
}

func TestInstantiate_UnknownSubTreeDefinition(t *testing.T) {
	_, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <SubTree ID="Ghost"/>
  </BehaviorTree>
</root>`, blackboard.New())

	var uErr *bterr.UnknownNodeError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, "Ghost", uErr.ID)
}

func TestInstantiate_SubTreeRejectsPortAttributes(t *testing.T) {
	_, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root main_tree_to_execute="A">
  <BehaviorTree ID="A">
    <SubTree ID="B" goal="{x}"/>
  </BehaviorTree>
  <BehaviorTree ID="B"><ActionX/></BehaviorTree>
</root>`, blackboard.New())

	var bErr *bterr.BindingError
	assert.ErrorAs(t, err, &bErr)
}

func TestInstantiate_BareDefinitionReference(t *testing.T) {
	tree := buildTree(t, `<root main_tree_to_execute="A">
  <BehaviorTree ID="B"><ActionY/></BehaviorTree>
  <BehaviorTree ID="A">
    <Sequence>
      <ActionX/>
      <B/>
    </Sequence>
  </BehaviorTree>
</root>`)

	bridge := tree.Root.Children()[1]
	assert.Equal(t, bt.KindSubTreeBridge, bridge.Kind())
	assert.Equal(t, "B", bridge.ID())
	require.NotNil(t, bridge.Child())
	assert.Equal(t, "ActionY", bridge.Child().ID())
	require.Len(t, tree.BlackboardStack, 2)
}

func TestInstantiate_NilBlackboard(t *testing.T) {
	p := NewParser(testutil.NewTestCatalog())
	require.NoError(t, p.LoadText(context.Background(), `<root>
  <BehaviorTree ID="A"><ActionX/></BehaviorTree>
</root>`))

	_, err := p.Instantiate(context.Background(), nil)
	var cErr *bterr.ConfigurationError
	require.ErrorAs(t, err, &cErr)
	assert.Contains(t, cErr.Error(), "blackboard")
}

func TestInstantiate_TreeMetadata(t *testing.T) {
	bb := blackboard.New()
	tree, err := BuildTreeFromText(context.Background(), testutil.NewTestCatalog(), `<root>
  <BehaviorTree ID="A"><ActionX/></BehaviorTree>
</root>`, bb)
	require.NoError(t, err)

	assert.NotEmpty(t, tree.UID)
	assert.Same(t, bb, tree.RootBlackboard())
}
