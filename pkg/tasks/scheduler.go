// Package tasks 提供按所有者分组、可取消的定时任务
//
// 所有任务都在调用 Update 的线程上同步执行（协作式，无真正并发）。
// 每个任务归属于一个 Key（实体 + 分组），取消一个分组或整个所有者
// 会原子地移除其全部未执行任务。
package tasks

import (
	"sort"

	"github.com/gonewx/horde/pkg/ecs"
)

// Group 任务分组名
type Group string

// 常用任务分组
const (
	// GroupBehavior AI 行为任务：感知轮询、攻击序列、待机/巡逻等待、随机音效、枪口火光
	GroupBehavior Group = "behavior"
	// GroupRagdoll 布娃娃各阶段任务（死亡时不随 behavior 一起取消）
	GroupRagdoll Group = "ragdoll"
	// GroupCleanup 死亡后的延迟清理
	GroupCleanup Group = "cleanup"
	// GroupSpawner 刷怪计时
	GroupSpawner Group = "spawner"
	// GroupProjectile 子弹生命周期
	GroupProjectile Group = "projectile"
	// GroupZone 伤害区域周期伤害
	GroupZone Group = "zone"
	// GroupGame 全局流程（游戏结束延迟等）
	GroupGame Group = "game"
)

// Key 任务所有者键
type Key struct {
	Owner ecs.EntityID
	Group Group
}

// TaskID 任务标识，0 表示无效
type TaskID uint64

type task struct {
	id       TaskID
	key      Key
	due      float64
	interval float64 // >0 表示周期任务
	fn       func()
}

// Scheduler 定时任务调度器
type Scheduler struct {
	now    float64
	nextID TaskID
	tasks  map[TaskID]*task
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	return &Scheduler{
		nextID: 1,
		tasks:  make(map[TaskID]*task),
	}
}

// Now 返回调度器内部时钟（秒）
func (s *Scheduler) Now() float64 {
	return s.now
}

// After 在 delay 秒后执行一次 fn
// delay <= 0 的任务在下一次 Update 中执行
func (s *Scheduler) After(key Key, delay float64, fn func()) TaskID {
	return s.add(key, delay, 0, fn)
}

// Every 每隔 interval 秒执行一次 fn，首次执行在 interval 秒后
// interval 必须为正数，否则按 After 处理
func (s *Scheduler) Every(key Key, interval float64, fn func()) TaskID {
	if interval <= 0 {
		return s.add(key, 0, 0, fn)
	}
	return s.add(key, interval, interval, fn)
}

func (s *Scheduler) add(key Key, delay, interval float64, fn func()) TaskID {
	if delay < 0 {
		delay = 0
	}
	id := s.nextID
	s.nextID++
	s.tasks[id] = &task{
		id:       id,
		key:      key,
		due:      s.now + delay,
		interval: interval,
		fn:       fn,
	}
	return id
}

// Cancel 取消单个任务，返回是否确实取消了一个未执行的任务
func (s *Scheduler) Cancel(id TaskID) bool {
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// CancelGroup 取消某个所有者在指定分组下的全部任务，返回取消数量
func (s *Scheduler) CancelGroup(owner ecs.EntityID, group Group) int {
	n := 0
	for id, t := range s.tasks {
		if t.key.Owner == owner && t.key.Group == group {
			delete(s.tasks, id)
			n++
		}
	}
	return n
}

// CancelOwner 取消某个所有者的全部任务（所有分组），返回取消数量
func (s *Scheduler) CancelOwner(owner ecs.EntityID) int {
	n := 0
	for id, t := range s.tasks {
		if t.key.Owner == owner {
			delete(s.tasks, id)
			n++
		}
	}
	return n
}

// Pending 返回某个所有者在指定分组下的未执行任务数量
func (s *Scheduler) Pending(owner ecs.EntityID, group Group) int {
	n := 0
	for _, t := range s.tasks {
		if t.key.Owner == owner && t.key.Group == group {
			n++
		}
	}
	return n
}

// Len 返回全部未执行任务数量
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Update 推进时钟并执行所有到期任务
//
// 同一次 Update 中到期的任务按到期时间、再按创建顺序执行。
// 在本次 Update 中被取消的任务（包括被更早执行的任务取消）不会执行。
// 周期任务每次 Update 最多执行一次，避免长帧造成连续补偿执行。
func (s *Scheduler) Update(dt float64) {
	if dt > 0 {
		s.now += dt
	}

	due := make([]*task, 0)
	for _, t := range s.tasks {
		if t.due <= s.now+1e-9 {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})

	for _, t := range due {
		// 可能已被前面的任务取消
		if _, ok := s.tasks[t.id]; !ok {
			continue
		}
		if t.interval > 0 {
			t.due += t.interval
			if t.due <= s.now {
				t.due = s.now + t.interval
			}
		} else {
			delete(s.tasks, t.id)
		}
		t.fn()
	}
}
