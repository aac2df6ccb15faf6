package typechecker

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
)

func (c *Checker) checkStatement(env *TypeEnvironment, stmt ast.Statement) []Diagnostic {
	if stmt == nil || ast.IsNil(stmt) {
		return nil
	}
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		return c.checkVariableDeclaration(env, s)
	case *ast.FunctionDeclaration:
		return c.checkFunctionDeclaration(env, s)
	case *ast.ClassDeclaration:
		return c.checkClassDeclaration(env, s)
	case *ast.BlockStatement:
		return c.checkBlock(env.Extend(), s)
	case *ast.IfStatement:
		diags := c.checkCondition(env, s.Condition, "if")
		diags = append(diags, c.checkStatement(env, s.Then)...)
		return append(diags, c.checkStatement(env, s.Else)...)
	case *ast.WhileStatement:
		diags := c.checkCondition(env, s.Condition, "while")
		return append(diags, c.checkStatement(env, s.Body)...)
	case *ast.ForStatement:
		diags, iterable := c.checkExpression(env, s.Iterable)
		loopEnv := env.Extend()
		element := Unknown
		if iterable.Kind == KindArray {
			element = iterable.Element
		}
		loopEnv.Define(s.Variable, element)
		return append(diags, c.checkStatement(loopEnv, s.Body)...)
	case *ast.WhenStatement:
		diags, subject := c.checkExpression(env, s.Subject)
		for _, branch := range s.Branches {
			for _, pattern := range branch.Patterns {
				patDiags, patType := c.checkExpression(env, pattern)
				diags = append(diags, patDiags...)
				if !comparable(subject, patType) {
					diags = append(diags, c.diag(pattern, "when branch %s can never match subject of type %s", patType.Name(), subject.Name()))
				}
			}
			diags = append(diags, c.checkStatement(env, branch.Body)...)
		}
		return append(diags, c.checkStatement(env, s.Else)...)
	case *ast.TryStatement:
		diags := c.checkBlock(env.Extend(), s.Body)
		if s.Catch != nil {
			catchEnv := env.Extend()
			if s.CatchVar != "" {
				catchEnv.Define(s.CatchVar, StringType)
			}
			diags = append(diags, c.checkBlock(catchEnv.Extend(), s.Catch)...)
		}
		if s.Finally != nil {
			diags = append(diags, c.checkBlock(env.Extend(), s.Finally)...)
		}
		return diags
	case *ast.ReturnStatement:
		return c.checkReturn(env, s)
	case *ast.BreakStatement, *ast.ContinueStatement:
		return nil
	case ast.Expression:
		diags, _ := c.checkExpression(env, s)
		return diags
	}
	return nil
}

func (c *Checker) checkBlock(env *TypeEnvironment, block *ast.BlockStatement) []Diagnostic {
	if block == nil {
		return nil
	}
	var diags []Diagnostic
	for _, stmt := range block.Statements {
		diags = append(diags, c.checkStatement(env, stmt)...)
	}
	return diags
}

func (c *Checker) checkCondition(env *TypeEnvironment, cond ast.Expression, keyword string) []Diagnostic {
	diags, typ := c.checkExpression(env, cond)
	if typ.Known() && typ.Kind != KindBool {
		diags = append(diags, c.diag(cond, "%s condition must be Boolean, got %s", keyword, typ.Name()))
	}
	return diags
}

func (c *Checker) checkVariableDeclaration(env *TypeEnvironment, decl *ast.VariableDeclaration) []Diagnostic {
	var diags []Diagnostic
	initType := Unknown
	if decl.Initializer != nil {
		diags, initType = c.checkExpression(env, decl.Initializer)
	}
	if decl.TypeAnnotation != nil && !decl.TypeAnnotation.Inferred {
		declared := FromRef(decl.TypeAnnotation, c.classes)
		if decl.Initializer != nil && !initType.IsCompatibleWith(declared) {
			diags = append(diags, c.diag(decl, "variable '%s' declared as %s but initialized with %s", decl.Name, declared.Name(), initType.Name()))
		}
		env.Define(decl.Name, declared)
		return diags
	}
	if ref := ToRef(initType); ref != nil {
		decl.TypeAnnotation = ref
		c.inferred++
		c.logger.Debug("inferred type", "name", decl.Name, "type", ref.String(), "line", decl.Pos().Line)
	}
	env.Define(decl.Name, initType)
	return diags
}

func (c *Checker) checkFunctionDeclaration(env *TypeEnvironment, decl *ast.FunctionDeclaration) []Diagnostic {
	env.Define(decl.Name, FunctionReturning(FromRef(decl.ReturnType, c.classes)))
	return c.checkFunctionBody(env.Extend(), decl.Name, decl.Params, decl.ReturnType, decl.Body)
}

func (c *Checker) checkFunctionBody(env *TypeEnvironment, name string, params []*ast.FunctionParameter, returnType *ast.TypeRef, body *ast.BlockStatement) []Diagnostic {
	for _, param := range params {
		env.Define(param.Name, FromRef(param.Type, c.classes))
	}
	c.pushReturnType(name, FromRef(returnType, c.classes))
	defer c.popReturnType()
	return c.checkBlock(env.Extend(), body)
}

func (c *Checker) checkClassDeclaration(env *TypeEnvironment, decl *ast.ClassDeclaration) []Diagnostic {
	var diags []Diagnostic
	if decl.SuperClass != "" {
		if _, ok := c.classes[decl.SuperClass]; !ok {
			diags = append(diags, c.diag(decl, "class '%s' extends unknown class '%s'", decl.Name, decl.SuperClass))
		}
	}
	info := c.classes[decl.Name]
	for _, field := range decl.Fields {
		if field.Initializer == nil {
			continue
		}
		fieldDiags, typ := c.checkExpression(env, field.Initializer)
		diags = append(diags, fieldDiags...)
		declared := FromRef(field.TypeAnnotation, c.classes)
		if field.TypeAnnotation != nil && !typ.IsCompatibleWith(declared) {
			diags = append(diags, c.diag(field, "field '%s' declared as %s but initialized with %s", field.Name, declared.Name(), typ.Name()))
		}
		if info != nil && !declared.Known() {
			info.fields[field.Name] = typ
		}
	}
	self := ClassType(decl.Name)
	memberEnv := func() *TypeEnvironment {
		member := env.Extend()
		member.Define("this", self)
		return member
	}
	for _, ctor := range decl.Constructors {
		diags = append(diags, c.checkFunctionBody(memberEnv(), decl.Name, ctor.Params, nil, ctor.Body)...)
	}
	for _, init := range decl.Initializers {
		diags = append(diags, c.checkFunctionBody(memberEnv(), decl.Name, nil, nil, init)...)
	}
	for _, method := range decl.Methods {
		diags = append(diags, c.checkFunctionBody(memberEnv(), method.Name, method.Params, method.ReturnType, method.Body)...)
	}
	return diags
}

func (c *Checker) checkReturn(env *TypeEnvironment, ret *ast.ReturnStatement) []Diagnostic {
	var diags []Diagnostic
	valueType := Void
	if ret.Value != nil {
		diags, valueType = c.checkExpression(env, ret.Value)
	}
	name, expected, ok := c.currentReturnType()
	if !ok || !expected.Known() {
		return diags
	}
	if expected.Kind == KindVoid {
		if ret.Value != nil && valueType.Known() && valueType.Kind != KindVoid {
			diags = append(diags, c.diag(ret, "function '%s' returns Unit but a %s value is returned", name, valueType.Name()))
		}
		return diags
	}
	if ret.Value == nil {
		diags = append(diags, c.diag(ret, "function '%s' must return %s", name, expected.Name()))
		return diags
	}
	if !valueType.IsCompatibleWith(expected) {
		diags = append(diags, c.diag(ret, "function '%s' returns %s but declares %s", name, valueType.Name(), expected.Name()))
	}
	return diags
}

// comparable reports whether a when pattern of type b could ever equal a
// subject of type a.
func comparable(a, b *Type) bool {
	if !a.Known() || !b.Known() {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a.Kind == b.Kind
}
