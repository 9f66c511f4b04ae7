package config

import "errors"

// ErrUnknownArchetype 请求的角色原型未在 combatants.yaml 中定义
var ErrUnknownArchetype = errors.New("unknown combatant archetype")
